package order_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cucikilat/pos/internal/api"
	"github.com/cucikilat/pos/internal/order"
)

// stubPrompter answers every retry prompt the same way and counts how often
// it was asked.
type stubPrompter struct {
	answer bool
	asked  int
}

func (p *stubPrompter) ConfirmRetry(string) bool {
	p.asked++
	return p.answer
}

func txJSON(t *testing.T, id string, status order.Status) json.RawMessage {
	t.Helper()

	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	raw, err := json.Marshal(map[string]any{
		"id":             id,
		"transaction_no": "TRX-20260830-" + id,
		"customer_id":    "c1",
		"customer":       map[string]any{"id": "c1", "name": "Siti", "phone": "0811"},
		"items": []map[string]any{
			{"service_id": "s1", "name": "Cuci Kering", "price": 5000, "unit": "kg", "quantity": 1, "subtotal": 5000},
		},
		"total_amount":   5000,
		"payment_method": "cash",
		"current_status": string(status),
		"progress": []map[string]any{
			{"status": "received", "timestamp": now, "checked_by": "admin"},
		},
		"estimated_done": now.Add(48 * time.Hour),
		"created_at":     now,
		"updated_at":     now,
	})
	require.NoError(t, err)

	return raw
}

func TestTracker_Fetch_ReplacesList(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	tracker := order.NewTracker(gw, nil)

	gw.EXPECT().
		GetPage(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ url.Values, out any) (*api.Pagination, error) {
			*out.(*[]json.RawMessage) = []json.RawMessage{
				txJSON(t, "tx-1", order.StatusWashing),
				txJSON(t, "tx-2", order.StatusReceived),
			}

			return nil, nil
		})

	require.NoError(t, tracker.Fetch(context.Background(), nil))

	txs := tracker.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "tx-1", txs[0].ID)
	assert.False(t, tracker.Loading())
	assert.Empty(t, tracker.Err())
}

func TestTracker_Fetch_PromptsUntilRetryCap(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	prompt := &stubPrompter{answer: true}
	tracker := order.NewTracker(gw, prompt)

	gw.EXPECT().
		GetPage(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		Return(nil, errors.New("backend down")).
		Times(4)

	err := tracker.Fetch(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, 3, prompt.asked, "the retry loop is bounded")
	assert.Contains(t, tracker.Err(), "backend down")
}

func TestTracker_Fetch_DismissStopsRetrying(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	prompt := &stubPrompter{answer: false}
	tracker := order.NewTracker(gw, prompt)

	gw.EXPECT().
		GetPage(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		Return(nil, errors.New("backend down"))

	err := tracker.Fetch(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, 1, prompt.asked)
}

func TestTracker_Fetch_NoPromptWhenDataIsVisible(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	prompt := &stubPrompter{answer: true}
	tracker := order.NewTracker(gw, prompt)

	gw.EXPECT().
		GetPage(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ url.Values, out any) (*api.Pagination, error) {
			*out.(*[]json.RawMessage) = []json.RawMessage{txJSON(t, "tx-1", order.StatusWashing)}
			return nil, nil
		})

	require.NoError(t, tracker.Fetch(context.Background(), nil))

	gw.EXPECT().
		GetPage(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		Return(nil, errors.New("backend down"))

	err := tracker.Fetch(context.Background(), nil)

	require.Error(t, err)
	assert.Zero(t, prompt.asked, "background refresh failures only record the error")
	assert.Len(t, tracker.Transactions(), 1, "visible data survives a failed refresh")
	assert.Contains(t, tracker.Err(), "backend down")
}

func TestTracker_Fetch_RejectsMalformedRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	tracker := order.NewTracker(gw, nil)

	gw.EXPECT().
		GetPage(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ url.Values, out any) (*api.Pagination, error) {
			*out.(*[]json.RawMessage) = []json.RawMessage{
				txJSON(t, "tx-1", order.StatusWashing),
				json.RawMessage(`{"transaction_no":"TRX-2"}`),
			}

			return nil, nil
		})

	err := tracker.Fetch(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
	assert.Empty(t, tracker.Transactions(), "a bad record rejects the whole page")
}

func TestTracker_AddProgress_AppliesServerState(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	tracker := order.NewTracker(gw, nil)

	gw.EXPECT().
		GetPage(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ url.Values, out any) (*api.Pagination, error) {
			*out.(*[]json.RawMessage) = []json.RawMessage{txJSON(t, "tx-1", order.StatusReceived)}
			return nil, nil
		})

	require.NoError(t, tracker.Fetch(context.Background(), nil))

	gw.EXPECT().
		Post(gomock.Any(), "/transactions/tx-1/progress", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, body, out any) error {
			params := body.(order.ProgressParams)
			assert.Equal(t, order.StatusCheck, params.Status)
			assert.JSONEq(t, `{"pockets":"2 coins"}`, string(params.Metadata))

			*out.(*json.RawMessage) = txJSON(t, "tx-1", order.StatusCheck)

			return nil
		})

	updated, err := tracker.AddProgress(context.Background(), "tx-1", order.ProgressParams{
		Status:    order.StatusCheck,
		CheckedBy: "admin",
		Metadata:  json.RawMessage(`{"pockets":"2 coins"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusCheck, updated.CurrentStatus)

	cached, ok := tracker.Get("tx-1")
	require.True(t, ok)
	assert.Equal(t, order.StatusCheck, cached.CurrentStatus, "local record replaced by the server's transaction")
}

func TestTracker_UpdateStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	tracker := order.NewTracker(gw, nil)

	gw.EXPECT().
		Patch(gomock.Any(), "/transactions/tx-1/status", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, body, out any) error {
			params := body.(order.StatusParams)
			assert.Equal(t, order.StatusCompleted, params.Status)

			*out.(*json.RawMessage) = txJSON(t, "tx-1", order.StatusCompleted)

			return nil
		})

	updated, err := tracker.UpdateStatus(context.Background(), "tx-1", order.StatusParams{
		Status:    order.StatusCompleted,
		CheckedBy: "admin",
	})

	require.NoError(t, err)
	assert.True(t, updated.CurrentStatus.Terminal())
}

func TestTracker_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	tracker := order.NewTracker(gw, nil)

	gw.EXPECT().
		Delete(gomock.Any(), "/transactions/tx-1/cancel", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, body, out any) error {
			reason := body.(map[string]string)
			assert.Equal(t, "customer request", reason["reason"])

			*out.(*json.RawMessage) = txJSON(t, "tx-1", order.StatusCancelled)

			return nil
		})

	updated, err := tracker.Cancel(context.Background(), "tx-1", "customer request")

	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updated.CurrentStatus)
}

func TestTracker_ByStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	tracker := order.NewTracker(gw, nil)

	gw.EXPECT().
		GetPage(gomock.Any(), "/transactions", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ url.Values, out any) (*api.Pagination, error) {
			*out.(*[]json.RawMessage) = []json.RawMessage{
				txJSON(t, "tx-1", order.StatusWashing),
				txJSON(t, "tx-2", order.StatusReceived),
				txJSON(t, "tx-3", order.StatusWashing),
			}

			return nil, nil
		})

	require.NoError(t, tracker.Fetch(context.Background(), nil))

	washing := tracker.ByStatus(order.StatusWashing)
	require.Len(t, washing, 2)
	assert.Equal(t, "tx-1", washing[0].ID)
	assert.Equal(t, "tx-3", washing[1].ID)

	assert.Empty(t, tracker.ByStatus(order.StatusDone))
}

func TestTracker_Dashboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	tracker := order.NewTracker(gw, nil)

	gw.EXPECT().
		Get(gomock.Any(), "/progress/dashboard", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ url.Values, out any) error {
			*out.(*map[order.Status]int) = map[order.Status]int{
				order.StatusWashing:   3,
				order.StatusPackaging: 1,
			}

			return nil
		})

	counts, err := tracker.Dashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, counts[order.StatusWashing])
	assert.Equal(t, 1, counts[order.StatusPackaging])
}
