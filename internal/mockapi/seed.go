package mockapi

import "github.com/cucikilat/pos/internal/catalog"

// seed installs the development fixtures: one staff account and the sample
// customers and services the counter is usually demoed with.
func (s *Server) seed() {
	s.users = []user{
		{ID: 1, Username: "admin", Name: "Admin User", Role: "owner", password: "admin"},
	}

	s.customers = []catalog.Customer{
		{ID: "c1", Name: "John Doe", Phone: "081234567890", Address: "Jl. Merdeka No. 123, Jakarta"},
		{ID: "c2", Name: "Jane Smith", Phone: "089876543210", Address: "Jl. Sudirman No. 456, Bandung"},
		{ID: "c3", Name: "Peter Jones", Phone: "081122334455", Address: "Jl. Thamrin No. 789, Surabaya"},
	}
	s.customerSeq = len(s.customers)

	s.services = []catalog.Service{
		{ID: "s1", Name: "Cuci Kering", Price: 5000, Unit: "kg", Category: "regular", Active: true},
		{ID: "s2", Name: "Cuci Setrika", Price: 7000, Unit: "kg", Category: "regular", Active: true},
		{ID: "s3", Name: "Dry Clean", Price: 15000, Unit: "pcs", Category: "premium", Active: true},
		{ID: "s4", Name: "Setrika Saja", Price: 3000, Unit: "kg", Category: "regular", Active: true},
		{ID: "s5", Name: "Cuci Sepatu", Price: 20000, Unit: "pasang", Category: "premium", Active: true},
		{ID: "s6", Name: "Cuci Boneka", Price: 25000, Unit: "pcs", Category: "premium", Active: true},
		{ID: "s7", Name: "Cuci Karpet", Price: 12000, Unit: "meter", Category: "premium", Active: true},
		{ID: "s8", Name: "Express 1 Hari", Price: 10000, Unit: "kg", Category: "express", Active: true},
	}
	s.serviceSeq = len(s.services)
}
