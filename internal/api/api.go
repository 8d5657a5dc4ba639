package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dutydesk/dutydesk-console/internal/session"
	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

// Service is the typed surface over the duty-roster backend used by the console.
type Service struct {
	client httpclient.Doer
	store  httpclient.SessionStore
}

// NewService wires the backend calls to an authenticated client and the
// session store login writes to.
func NewService(client httpclient.Doer, store httpclient.SessionStore) (*Service, error) {
	if client == nil {
		return nil, errors.New("api: client must not be nil")
	}
	if store == nil {
		return nil, errors.New("api: session store must not be nil")
	}
	return &Service{client: client, store: store}, nil
}

// Login exchanges credentials for an access token and stores it with the role.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, errors.New("username and password are required")
	}

	var res LoginResult
	err := httpclient.DoJSON(ctx, s.client, http.MethodPost, "/token", &res,
		httpclient.WithForm(map[string]string{
			"username": username,
			"password": password,
		}),
	)
	if err != nil {
		return LoginResult{}, err
	}
	if res.AccessToken == "" {
		return LoginResult{}, errors.New("login response carried no access token")
	}

	if err := s.store.Set(ctx, session.Session{Token: res.AccessToken, Role: res.Role}); err != nil {
		return LoginResult{}, fmt.Errorf("store session: %w", err)
	}
	return res, nil
}

// Logout forgets the stored credential and role.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentSession returns what is stored, without contacting the backend.
func (s *Service) CurrentSession(ctx context.Context) (session.Session, error) {
	return s.store.Get(ctx)
}

// AdvancedStats returns the per-staff duty statistics of a year.
func (s *Service) AdvancedStats(ctx context.Context, year int) (json.RawMessage, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	return s.raw(ctx, "/stats/advanced", yearQuery(year))
}

// YearlyStats returns the yearly duty summary.
func (s *Service) YearlyStats(ctx context.Context, year int) (json.RawMessage, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	return s.raw(ctx, "/stats/yearly", yearQuery(year))
}

// CompensatoryOverview lists leave balances, highest balance first.
func (s *Service) CompensatoryOverview(ctx context.Context, year int) ([]BalanceRow, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	var rows []BalanceRow
	if err := httpclient.DoJSON(ctx, s.client, http.MethodGet, "/compensatory/overview", &rows, yearQuery(year)); err != nil {
		return nil, err
	}
	return rows, nil
}

// CompensatoryCalendar returns duty and leave events plus remaining quota for one person.
func (s *Service) CompensatoryCalendar(ctx context.Context, staff string, year int) (Calendar, error) {
	staff = strings.TrimSpace(staff)
	if staff == "" {
		return Calendar{}, errors.New("staff name is required")
	}
	if err := validateYear(year); err != nil {
		return Calendar{}, err
	}

	var cal Calendar
	err := httpclient.DoJSON(ctx, s.client, http.MethodGet, "/compensatory/calendar/{staff}", &cal,
		httpclient.WithPathParam("staff", staff),
		yearQuery(year),
	)
	if err != nil {
		return Calendar{}, err
	}
	return cal, nil
}

// Redeem books one day of leave against a duty day's quota.
func (s *Service) Redeem(ctx context.Context, req RedeemRequest) (Message, error) {
	if err := req.validate(); err != nil {
		return Message{}, err
	}
	var msg Message
	if err := httpclient.DoJSON(ctx, s.client, http.MethodPost, "/compensatory/redeem", &msg, httpclient.WithJSON(req)); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// CancelRedeem reverts a booked leave day.
func (s *Service) CancelRedeem(ctx context.Context, redemptionID int) (Message, error) {
	if redemptionID <= 0 {
		return Message{}, fmt.Errorf("invalid redemption id %d", redemptionID)
	}
	var msg Message
	err := httpclient.DoJSON(ctx, s.client, http.MethodDelete, "/compensatory/redeem/{id}", &msg,
		httpclient.WithPathParam("id", strconv.Itoa(redemptionID)),
	)
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Raw dispatches an arbitrary request and returns the body untouched.
func (s *Service) Raw(ctx context.Context, method, path string, body json.RawMessage) (json.RawMessage, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return nil, errors.New("method is required")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var opts []httpclient.RequestOption
	if len(body) > 0 {
		opts = append(opts, httpclient.WithJSON(body))
	}
	out, err := s.client.Do(ctx, method, path, opts...)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

func (s *Service) raw(ctx context.Context, path string, opts ...httpclient.RequestOption) (json.RawMessage, error) {
	out, err := s.client.Do(ctx, http.MethodGet, path, opts...)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

func yearQuery(year int) httpclient.RequestOption {
	return httpclient.WithQuery(map[string]string{"year": strconv.Itoa(year)})
}

func validateYear(year int) error {
	if year <= 0 {
		return fmt.Errorf("invalid year %d", year)
	}
	return nil
}

// BackendMessage extracts the backend's "detail" message from a status error,
// falling back to the error text.
func BackendMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *httpclient.StatusError
	if errors.As(err, &se) && len(se.Body) > 0 {
		var body struct {
			Detail json.RawMessage `json:"detail"`
		}
		if json.Unmarshal(se.Body, &body) == nil && len(body.Detail) > 0 {
			var s string
			if json.Unmarshal(body.Detail, &s) == nil {
				return s
			}
			return string(body.Detail)
		}
	}
	return err.Error()
}
