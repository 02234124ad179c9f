// Package synth generates the synthetic records the demo agents work on.
package synth

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

var (
	firstNames  = []string{"Ava", "Kai", "Maya", "Liam", "Zoe", "Noah", "Ivy", "Leo", "Mia", "Eli"}
	lastNames   = []string{"Stone", "Rivera", "Chen", "Walker", "Singh", "Lopez", "Kim", "Ali", "King", "Patel"}
	industries  = []string{"SaaS", "Finance", "Retail", "Health", "Media"}
	issues      = []string{"Cannot login", "Payment failed", "Bug in latest update", "Feature request", "Account locked"}
	categories  = []string{"billing", "technical", "product", "other"}
	jobTitles   = []string{"Backend Engineer", "Data Analyst", "Product Designer", "Support Specialist", "Sales Associate"}
	companies   = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli"}
	cities      = []string{"London", "Berlin", "Toronto", "Austin", "Remote"}
	specialties = []string{"General Practice", "Cardiology", "Dermatology", "Pediatrics", "Psychiatry"}
	practices   = []string{"Immigration", "Employment", "Family", "Housing", "Contracts"}
)

// Lead is a sales prospect.
type Lead struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Email    string `json:"email"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
}

// Ticket is a customer support ticket.
type Ticket struct {
	ID       int    `json:"id"`
	Issue    string `json:"issue"`
	Category string `json:"category"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

// Job is a job listing.
type Job struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Salary   int    `json:"salary"`
}

// Doctor is a health practitioner.
type Doctor struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	City      string `json:"city"`
}

// Lawyer is a legal practitioner.
type Lawyer struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Practice string `json:"practice"`
	City     string `json:"city"`
}

// Generator produces synthetic records. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded with seed. A zero seed uses the clock.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Generator) pick(items []string) string {
	return items[g.rnd.IntN(len(items))]
}

func (g *Generator) name() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

// Leads returns n new leads with scores in [60, 98].
func (g *Generator) Leads(n int) []Lead {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Lead, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Lead{
			ID:       i + 1,
			Name:     g.name(),
			Industry: g.pick(industries),
			Email:    fmt.Sprintf("lead%d@example.com", i+1),
			Score:    60 + g.rnd.IntN(39),
			Status:   "new",
		})
	}
	return out
}

// Tickets returns n new open tickets.
func (g *Generator) Tickets(n int) []Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Ticket, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Ticket{
			ID:       i,
			Issue:    g.pick(issues),
			Category: g.pick(categories),
			Customer: fmt.Sprintf("customer%d@example.com", i),
			Status:   "open",
		})
	}
	return out
}

// Jobs returns n job listings.
func (g *Generator) Jobs(n int) []Job {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Job, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Job{
			ID:       i + 1,
			Title:    g.pick(jobTitles),
			Company:  g.pick(companies),
			Location: g.pick(cities),
			Salary:   40000 + 1000*g.rnd.IntN(81),
		})
	}
	return out
}

// Doctors returns n doctors.
func (g *Generator) Doctors(n int) []Doctor {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Doctor, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Doctor{
			ID:        i + 1,
			Name:      "Dr. " + g.name(),
			Specialty: g.pick(specialties),
			City:      g.pick(cities),
		})
	}
	return out
}

// Lawyers returns n lawyers.
func (g *Generator) Lawyers(n int) []Lawyer {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Lawyer, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Lawyer{
			ID:       i + 1,
			Name:     g.name(),
			Practice: g.pick(practices),
			City:     g.pick(cities),
		})
	}
	return out
}
