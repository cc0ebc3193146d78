// Generates the sample input tables under data/. Deterministic: a fixed
// seed produces the same files on every run, so the planning outputs over
// them are reproducible too.
//
// Headers deliberately use the messy upstream spellings (Loan No, Amount
// Due, Risk Grade) rather than the canonical names, to exercise the schema
// standardizer the way real exports do.
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var industries = []string{
	"Technology", "Logistics", "Retail", "Manufacturing",
	"Healthcare", "Construction", "Agriculture",
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findDataDir()

	requests := generateRequests(rng, baseDir)
	generatePortfolio(rng, baseDir)
	generateLedgers(rng, requests, baseDir)

	fmt.Println("Sample data generation complete.")
}

type request struct {
	loanID string
	amount float64
}

func generateRequests(rng *rand.Rand, baseDir string) []request {
	filePath := filepath.Join(baseDir, "loan_requests.csv")
	f, err := os.Create(filePath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"Loan ID", "Client ID", "Requested Amount", "Interest Rate",
		"Sector", "DPD History", "Annual Revenue", "Years in Business",
	})

	var out []request
	for i := 1; i <= 40; i++ {
		loanID := fmt.Sprintf("L-%03d", i)
		// A few repeat clients so the top-client ceiling has something
		// to bite on.
		customerID := fmt.Sprintf("C-%03d", 100+rng.Intn(25))

		amount := float64(50_000 + rng.Intn(39)*50_000)
		apr := 8 + rng.Float64()*26
		apr = math.Round(apr*10) / 10
		industry := industries[rng.Intn(len(industries))]
		dpdHistory := math.Round(rng.Float64()*40*10) / 10
		revenue := float64(500_000 + rng.Intn(160)*500_000)
		years := rng.Intn(26)

		amountCell := fmt.Sprintf("%.2f", amount)
		// Some upstream systems export formatted currency strings.
		if i%7 == 0 {
			amountCell = fmt.Sprintf("$%s", withThousands(amount))
		}

		// Two defective rows: a blank identifier and a zero amount. The
		// planner keeps them visible as malformed selection rows.
		switch i {
		case 38:
			loanID = ""
		case 39:
			amountCell = "0"
			amount = 0
		}

		w.Write([]string{
			loanID,
			customerID,
			amountCell,
			fmt.Sprintf("%.1f%%", apr),
			industry,
			fmt.Sprintf("%.1f", dpdHistory),
			fmt.Sprintf("%.0f", revenue),
			fmt.Sprintf("%d", years),
		})
		if loanID != "" && amount > 0 {
			out = append(out, request{loanID: loanID, amount: amount})
		}
	}

	fmt.Printf("Generated 40 request rows -> loan_requests.csv\n")
	return out
}

func generatePortfolio(rng *rand.Rand, baseDir string) {
	filePath := filepath.Join(baseDir, "portfolio.csv")
	f, err := os.Create(filePath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"Facility ID", "Client ID", "Sector", "Risk Grade",
		"Interest Rate", "Outstanding Balance",
	})

	grades := []string{"A", "A", "A", "B", "B", "B", "B", "C", "C", "D"}
	for i := 1; i <= 25; i++ {
		outstanding := float64(20_000 + rng.Intn(75)*20_000)
		apr := 8 + rng.Float64()*22

		w.Write([]string{
			fmt.Sprintf("F-%03d", i),
			fmt.Sprintf("C-%03d", 100+rng.Intn(25)),
			industries[rng.Intn(len(industries))],
			grades[rng.Intn(len(grades))],
			fmt.Sprintf("%.1f", math.Round(apr*10)/10),
			fmt.Sprintf("%.2f", outstanding),
		})
	}

	fmt.Printf("Generated 25 exposure rows -> portfolio.csv\n")
}

func generateLedgers(rng *rand.Rand, requests []request, baseDir string) {
	schedPath := filepath.Join(baseDir, "payment_schedule.csv")
	sf, err := os.Create(schedPath)
	if err != nil {
		panic(err)
	}
	defer sf.Close()
	sw := csv.NewWriter(sf)
	defer sw.Flush()
	sw.Write([]string{"Loan No", "Due Date", "Amount Due"})

	payPath := filepath.Join(baseDir, "payments.csv")
	pf, err := os.Create(payPath)
	if err != nil {
		panic(err)
	}
	defer pf.Close()
	pw := csv.NewWriter(pf)
	defer pw.Flush()
	pw.Write([]string{"Loan No", "Payment Date", "Amount Paid"})

	// Monthly installments from November 2023, reconciled as of 2024-03-01.
	start := time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)
	dueCount, paidCount, ledgerLoans := 0, 0, 0

	for _, req := range requests {
		// Roughly three quarters of the requests have ledger history.
		if rng.Float64() > 0.75 {
			continue
		}
		ledgerLoans++
		// The first ledger loan is schedule-only, so the reconciliation
		// exclusion path has data too.
		scheduleOnly := ledgerLoans == 1

		installments := 1 + rng.Intn(3)
		installment := math.Round(req.amount/float64(installments*12)*100) / 100

		for k := 0; k < installments; k++ {
			due := start.AddDate(0, k, 0).AddDate(0, 0, rng.Intn(10))
			sw.Write([]string{req.loanID, due.Format("2006-01-02"), fmt.Sprintf("%.2f", installment)})
			dueCount++
			if scheduleOnly {
				continue
			}

			// Payment behavior: 70% on time, 12% late, 10% partial,
			// 8% unpaid.
			roll := rng.Float64()
			switch {
			case roll < 0.70:
				paid := due.AddDate(0, 0, rng.Intn(5))
				pw.Write([]string{req.loanID, paid.Format("2006-01-02"), fmt.Sprintf("%.2f", installment)})
				paidCount++
			case roll < 0.82:
				paid := due.AddDate(0, 0, 20+rng.Intn(60))
				pw.Write([]string{req.loanID, paid.Format("2006-01-02"), fmt.Sprintf("%.2f", installment)})
				paidCount++
			case roll < 0.92:
				paid := due.AddDate(0, 0, rng.Intn(15))
				partial := math.Round(installment*0.4*100) / 100
				pw.Write([]string{req.loanID, paid.Format("2006-01-02"), fmt.Sprintf("%.2f", partial)})
				paidCount++
			default:
				// No receipt; the loan runs past due.
			}
		}
	}

	// One receipt with no contractual side, excluded the other way around.
	pw.Write([]string{"L-999", "2024-01-20", "1500.00"})
	paidCount++

	fmt.Printf("Generated %d due rows -> payment_schedule.csv\n", dueCount)
	fmt.Printf("Generated %d receipt rows -> payments.csv\n", paidCount)
}

func withThousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	out := ""
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out += ","
		}
		out += string(r)
	}
	return out
}

func findDataDir() string {
	candidates := []string{"data", "./data", "."}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "data"
}
