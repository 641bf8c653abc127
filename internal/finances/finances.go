// Package finances builds the finances overview and the dashboard metric cards
// from imported store data and the user's task and project lists.
package finances

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/deskhq/desk-backend/internal/commerce"
	projectdomain "github.com/deskhq/desk-backend/internal/projects/domain"
	taskdomain "github.com/deskhq/desk-backend/internal/tasks/domain"
)

const (
	dashboardTasks    = 3
	dashboardProjects = 2
	currencySymbol    = "₪"
)

// Metric is a display-only dashboard card.
type Metric struct {
	Title      string  `json:"title"`
	Value      any     `json:"value"`
	Change     *string `json:"change,omitempty"`
	Increasing *bool   `json:"increasing,omitempty"`
}

// Trend compares the last two months of the sales series.
type Trend struct {
	Current    commerce.SalesPoint  `json:"current"`
	Previous   *commerce.SalesPoint `json:"previous,omitempty"`
	Change     *string              `json:"change,omitempty"`
	Increasing *bool                `json:"increasing,omitempty"`
}

type Overview struct {
	Sales         []commerce.SalesPoint   `json:"sales"`
	Products      []commerce.ProductShare `json:"products"`
	TotalSales    float64                 `json:"total_sales"`
	TotalProducts float64                 `json:"total_products"`
	Trend         *Trend                  `json:"trend,omitempty"`
}

type Dashboard struct {
	Metrics  []Metric                `json:"metrics"`
	Tasks    []taskdomain.Task       `json:"tasks"`
	Projects []projectdomain.Project `json:"projects"`
}

// StoreData is the imported commerce data the overview reads.
type StoreData interface {
	Sales(ctx context.Context, userID string) ([]commerce.SalesPoint, error)
	Products(ctx context.Context, userID string) ([]commerce.ProductShare, error)
}

type Service struct {
	data StoreData
}

func NewService(data StoreData) *Service {
	return &Service{data: data}
}

// Overview returns the sales series, product breakdown and month-over-month trend.
func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	sales, err := s.data.Sales(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("load sales: %w", err)
	}
	products, err := s.data.Products(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("load products: %w", err)
	}

	out := Overview{Sales: sales, Products: products, Trend: TrendOf(sales)}
	for _, p := range sales {
		out.TotalSales += p.Sales
	}
	for _, p := range products {
		out.TotalProducts += p.Value
	}
	return out, nil
}

// Metrics builds the dashboard cards. The sales card is included only when
// the user has imported sales data.
func (s *Service) Metrics(ctx context.Context, userID string, tasks []taskdomain.Task, projects []projectdomain.Project) ([]Metric, error) {
	sales, err := s.data.Sales(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	return BuildMetrics(sales, tasks, projects), nil
}

// BuildMetrics is Metrics over data already in hand.
func BuildMetrics(sales []commerce.SalesPoint, tasks []taskdomain.Task, projects []projectdomain.Project) []Metric {
	var metrics []Metric
	if tr := TrendOf(sales); tr != nil {
		metrics = append(metrics, Metric{
			Title:      "Sales Last Month",
			Value:      FormatAmount(tr.Current.Sales),
			Change:     tr.Change,
			Increasing: tr.Increasing,
		})
	}

	open, done := 0, 0
	for _, t := range tasks {
		if t.Completed {
			done++
		} else {
			open++
		}
	}
	active := 0
	for _, p := range projects {
		if p.Active() {
			active++
		}
	}

	return append(metrics,
		Metric{Title: "Open Tasks", Value: open},
		Metric{Title: "Completed Tasks", Value: done},
		Metric{Title: "Active Projects", Value: active},
	)
}

// BuildDashboard picks the open tasks due soonest and the first active projects.
func BuildDashboard(metrics []Metric, tasks []taskdomain.Task, projects []projectdomain.Project) Dashboard {
	open := make([]taskdomain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	// undated tasks go last; ties keep collection order
	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i].DueDate, open[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	if len(open) > dashboardTasks {
		open = open[:dashboardTasks]
	}

	active := make([]projectdomain.Project, 0, dashboardProjects)
	for _, p := range projects {
		if len(active) == dashboardProjects {
			break
		}
		if p.Active() {
			active = append(active, p)
		}
	}

	if metrics == nil {
		metrics = []Metric{}
	}
	return Dashboard{Metrics: metrics, Tasks: open, Projects: active}
}

// TrendOf compares the last month of the series with the one before it.
// It returns nil for an empty series.
func TrendOf(sales []commerce.SalesPoint) *Trend {
	if len(sales) == 0 {
		return nil
	}
	tr := &Trend{Current: sales[len(sales)-1]}
	if len(sales) < 2 {
		return tr
	}
	prev := sales[len(sales)-2]
	tr.Previous = &prev
	if prev.Sales == 0 {
		return tr
	}
	pct := (tr.Current.Sales - prev.Sales) / prev.Sales * 100
	change := fmt.Sprintf("%+.1f%%", pct)
	increasing := pct >= 0
	tr.Change = &change
	tr.Increasing = &increasing
	return tr
}

// FormatAmount renders a whole-currency amount with thousands separators, e.g. ₪8,900.
func FormatAmount(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + currencySymbol + string(out)
}
