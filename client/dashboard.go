package client

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo/core"
)

type (
	Grade struct {
		ID         string  `json:"id"`
		Student    Ref     `json:"student"`
		Course     Ref     `json:"course"`
		Percentage float64 `json:"percentage"`
		Grade      string  `json:"grade"`
	}

	Attendance struct {
		ID      string    `json:"id"`
		Student Ref       `json:"student"`
		Course  Ref       `json:"course"`
		Date    time.Time `json:"date"`
		Status  string    `json:"status"`
	}

	Payment struct {
		ID      string  `json:"id"`
		Student Ref     `json:"student"`
		Amount  float64 `json:"amount"`
		Status  string  `json:"status"`
	}

	Order struct {
		ID          string  `json:"id"`
		Student     Ref     `json:"student"`
		TotalAmount float64 `json:"total_amount"`
		Status      string  `json:"status"`
	}

	Message struct {
		ID        string `json:"id"`
		Sender    Ref    `json:"sender"`
		Recipient Ref    `json:"recipient"`
		Subject   string `json:"subject"`
		IsRead    bool   `json:"is_read"`
	}

	Event struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"`
	}

	// DashboardStats summarizes the collections visible to the client's credential.
	// Sections the credential may not read are left zeroed.
	DashboardStats struct {
		Students          int64   `json:"students"`
		Teachers          int     `json:"teachers"`
		Courses           int     `json:"courses"`
		AverageGrade      float64 `json:"average_grade"`
		AttendanceRate    float64 `json:"attendance_rate"`
		PaymentsCollected float64 `json:"payments_collected"`
		PaymentsPending   float64 `json:"payments_pending"`
		PendingOrders     int     `json:"pending_orders"`
		UnreadMessages    int     `json:"unread_messages"`
		UpcomingEvents    int     `json:"upcoming_events"`
	}
)

// Dashboard fetches the collections in parallel and derives the dashboard statistics.
func (c *Client) Dashboard(ctx context.Context) (DashboardStats, error) {
	var (
		stats       DashboardStats
		teachers    []Ref
		courses     []Ref
		grades      []Grade
		attendances []Attendance
		payments    []Payment
		orders      []Order
		messages    []Message
		events      []Event
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// with a page size of 1, the page count is the total
		_, env, err := List[Ref](gctx, c, "/students", "students", map[string]string{"limit": "1"})
		if env.TotalPages != nil {
			stats.Students = *env.TotalPages
		}
		return skipForbidden(err)
	})
	g.Go(func() (err error) {
		teachers, _, err = List[Ref](gctx, c, "/teachers", "teachers", nil)
		return skipForbidden(err)
	})
	g.Go(func() (err error) {
		courses, _, err = List[Ref](gctx, c, "/courses", "courses", nil)
		return skipForbidden(err)
	})
	g.Go(func() (err error) {
		grades, _, err = List[Grade](gctx, c, "/grades", "grades", nil)
		return skipForbidden(err)
	})
	g.Go(func() (err error) {
		attendances, _, err = List[Attendance](gctx, c, "/attendance", "attendance", nil)
		return skipForbidden(err)
	})
	g.Go(func() (err error) {
		payments, _, err = List[Payment](gctx, c, "/payments", "payments", nil)
		return skipForbidden(err)
	})
	g.Go(func() (err error) {
		orders, _, err = List[Order](gctx, c, "/cantine/orders", "orders", nil)
		return skipForbidden(err)
	})
	g.Go(func() (err error) {
		messages, _, err = List[Message](gctx, c, "/messages", "messages", map[string]string{"box": "inbox", "is_read": "false"})
		return skipForbidden(err)
	})
	g.Go(func() (err error) {
		events, _, err = List[Event](gctx, c, "/events", "events", nil)
		return skipForbidden(err)
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	stats.Teachers = len(teachers)
	stats.Courses = len(courses)
	stats.AverageGrade = AverageGrade(grades)
	stats.AttendanceRate = AttendanceRate(attendances)
	stats.PaymentsCollected, stats.PaymentsPending = PaymentTotals(payments)
	stats.PendingOrders = count(orders, func(o Order) bool { return o.Status == "pending" })
	stats.UnreadMessages = count(messages, func(m Message) bool { return !m.IsRead })
	now := core.Now()
	stats.UpcomingEvents = count(events, func(e Event) bool { return e.StartDate.After(now) })
	return stats, nil
}

// AverageGrade is the mean percentage of grades, 0 when there are none.
func AverageGrade(grades []Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.Percentage
	}
	return round2(sum / float64(len(grades)))
}

// AttendanceRate is the share of present or late records, in percent.
func AttendanceRate(records []Attendance) float64 {
	if len(records) == 0 {
		return 0
	}
	attended := count(records, func(a Attendance) bool { return a.Status == "present" || a.Status == "late" })
	return round2(float64(attended) * 100 / float64(len(records)))
}

// PaymentTotals sums the paid and pending amounts.
func PaymentTotals(payments []Payment) (collected, pending float64) {
	for _, p := range payments {
		switch p.Status {
		case "paid":
			collected += p.Amount
		case "pending":
			pending += p.Amount
		}
	}
	return round2(collected), round2(pending)
}

func count[T any](items []T, keep func(T) bool) int {
	n := 0
	for _, item := range items {
		if keep(item) {
			n++
		}
	}
	return n
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func skipForbidden(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsForbidden() {
		return nil
	}
	return err
}
