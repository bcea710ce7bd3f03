package report_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cucikilat/pos/internal/api"
	"github.com/cucikilat/pos/internal/order"
	"github.com/cucikilat/pos/internal/report"
)

func expectReports(gw *api.MockGateway, wantStart, wantEnd string, rows []report.Row, sum report.Summary) {
	gw.EXPECT().
		Get(gomock.Any(), "/reports/financial", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, params url.Values, out any) error {
			if wantStart != "" {
				if got := params.Get("start_date"); got != wantStart {
					return errors.New("unexpected start_date " + got)
				}

				if got := params.Get("end_date"); got != wantEnd {
					return errors.New("unexpected end_date " + got)
				}
			}

			*out.(*[]report.Row) = rows

			return nil
		})

	gw.EXPECT().
		Get(gomock.Any(), "/reports/summary", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ url.Values, out any) error {
			*out.(*report.Summary) = sum
			return nil
		})
}

func TestAggregator_Refresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	agg := report.NewAggregator(gw)

	today := report.Today()
	rows := []report.Row{
		{ID: "tx-1", TransactionNo: "TRX-1", CustomerName: "Siti", Total: 15000, PaymentMethod: order.PaymentCash, Status: order.StatusCompleted},
	}
	sum := report.Summary{TotalRevenue: 15000, TotalTransactions: 1, TotalCompleted: 1}

	expectReports(gw, today.Start.Format(time.DateOnly), today.End.Format(time.DateOnly), rows, sum)

	require.NoError(t, agg.Refresh(context.Background()))

	assert.Equal(t, rows, agg.Rows())
	assert.Equal(t, sum, agg.Summary())
	assert.False(t, agg.Loading())
	assert.Empty(t, agg.Err())
}

func TestAggregator_SetFilter_Refetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	agg := report.NewAggregator(gw)

	f := report.Filter{
		Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}

	expectReports(gw, "2026-08-01", "2026-08-31",
		[]report.Row{{ID: "tx-1"}, {ID: "tx-2"}},
		report.Summary{TotalTransactions: 2})

	require.NoError(t, agg.SetFilter(context.Background(), f))

	assert.Equal(t, f, agg.Filter())
	assert.Len(t, agg.Rows(), 2, "changing the filter always refetches")
}

func TestAggregator_RefreshFailureRecordsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := api.NewMockGateway(ctrl)

	agg := report.NewAggregator(gw)

	gw.EXPECT().
		Get(gomock.Any(), "/reports/financial", gomock.Any(), gomock.Any()).
		Return(errors.New("backend down"))

	err := agg.Refresh(context.Background())

	require.Error(t, err)
	assert.Contains(t, agg.Err(), "backend down")
	assert.False(t, agg.Loading())
	assert.Empty(t, agg.Rows())
}

func TestToday_CoversCurrentDay(t *testing.T) {
	f := report.Today()

	now := time.Now()
	assert.Equal(t, now.Year(), f.Start.Year())
	assert.Equal(t, now.YearDay(), f.Start.YearDay())
	assert.Equal(t, f.Start, f.End)
}
