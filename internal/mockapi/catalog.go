package mockapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cucikilat/pos/internal/catalog"
)

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]catalog.Customer, len(s.customers))
	copy(out, s.customers)
	s.mu.Unlock()

	writePage(w, out, len(out))
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c catalog.Customer
	if !decodeBody(w, r, &c) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Name == "" || c.Phone == "" {
		writeError(w, http.StatusUnprocessableEntity, "name and phone are required")
		return
	}

	for _, existing := range s.customers {
		if existing.Phone == c.Phone {
			writeError(w, http.StatusUnprocessableEntity, "phone number already registered")
			return
		}
	}

	s.customerSeq++
	c.ID = fmt.Sprintf("c%d", s.customerSeq)
	s.customers = append(s.customers, c)

	writeData(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var c catalog.Customer
	if !decodeBody(w, r, &c) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if existing.Phone == c.Phone && existing.ID != id {
			writeError(w, http.StatusUnprocessableEntity, "phone number already registered")
			return
		}
	}

	for i, existing := range s.customers {
		if existing.ID == id {
			c.ID = id
			s.customers[i] = c
			writeData(w, http.StatusOK, c)

			return
		}
	}

	writeError(w, http.StatusNotFound, "customer not found")
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.customers {
		if existing.ID == id {
			s.customers = append(s.customers[:i], s.customers[i+1:]...)
			writeData(w, http.StatusOK, nil)

			return
		}
	}

	writeError(w, http.StatusNotFound, "customer not found")
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]catalog.Service, len(s.services))
	copy(out, s.services)
	s.mu.Unlock()

	writePage(w, out, len(out))
}

func (s *Server) handleActiveServices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var out []catalog.Service

	for _, svc := range s.services {
		if svc.Active {
			out = append(out, svc)
		}
	}
	s.mu.Unlock()

	writePage(w, out, len(out))
}

func (s *Server) handleServiceCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	seen := make(map[string]bool)

	var categories []string

	for _, svc := range s.services {
		if svc.Category != "" && !seen[svc.Category] {
			seen[svc.Category] = true

			categories = append(categories, svc.Category)
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, categories)
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var svc catalog.Service
	if !decodeBody(w, r, &svc) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if svc.Name == "" || svc.Unit == "" {
		writeError(w, http.StatusUnprocessableEntity, "name and unit are required")
		return
	}

	if svc.Price <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "price must be greater than 0")
		return
	}

	for _, existing := range s.services {
		if strings.EqualFold(existing.Name, svc.Name) {
			writeError(w, http.StatusUnprocessableEntity, "service name already exists")
			return
		}
	}

	s.serviceSeq++
	svc.ID = fmt.Sprintf("s%d", s.serviceSeq)
	s.services = append(s.services, svc)

	writeData(w, http.StatusCreated, svc)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var svc catalog.Service
	if !decodeBody(w, r, &svc) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.services {
		if strings.EqualFold(existing.Name, svc.Name) && existing.ID != id {
			writeError(w, http.StatusUnprocessableEntity, "service name already exists")
			return
		}
	}

	for i, existing := range s.services {
		if existing.ID == id {
			svc.ID = id
			s.services[i] = svc
			writeData(w, http.StatusOK, svc)

			return
		}
	}

	writeError(w, http.StatusNotFound, "service not found")
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.services {
		if existing.ID == id {
			s.services = append(s.services[:i], s.services[i+1:]...)
			writeData(w, http.StatusOK, nil)

			return
		}
	}

	writeError(w, http.StatusNotFound, "service not found")
}
