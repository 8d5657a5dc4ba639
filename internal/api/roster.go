package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

// Schedules lists the duty roster of one month.
func (s *Service) Schedules(ctx context.Context, year, month int) ([]Schedule, error) {
	q, err := monthQuery(year, month)
	if err != nil {
		return nil, err
	}
	var out []Schedule
	if err := httpclient.DoJSON(ctx, s.client, http.MethodGet, "/schedules/", &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSchedule rewrites one roster entry. Changing StaffName reassigns the
// duty; the phone is only taken over when the name is unchanged.
func (s *Service) UpdateSchedule(ctx context.Context, sch Schedule) (Message, error) {
	sch.StaffName = strings.TrimSpace(sch.StaffName)
	if err := sch.validate(); err != nil {
		return Message{}, err
	}
	return s.message(ctx, http.MethodPut, "/schedules/{id}",
		idParam(sch.ID),
		httpclient.WithJSON(sch),
	)
}

// DeleteSchedule removes one roster entry.
func (s *Service) DeleteSchedule(ctx context.Context, id int) (Message, error) {
	if id <= 0 {
		return Message{}, fmt.Errorf("invalid schedule id %d", id)
	}
	return s.message(ctx, http.MethodDelete, "/schedules/{id}", idParam(id))
}

// ImportSchedules uploads a roster spreadsheet. With overwrite set the backend
// first deletes every entry between the first and last date in the file.
func (s *Service) ImportSchedules(ctx context.Context, filename string, r io.Reader, overwrite bool) (Message, error) {
	if err := checkUpload(filename, r); err != nil {
		return Message{}, err
	}
	return s.message(ctx, http.MethodPost, "/schedules/import_excel",
		httpclient.WithQuery(map[string]string{"is_overwrite": strconv.FormatBool(overwrite)}),
		httpclient.WithFile("file", filename, r),
	)
}

// ImportHistory lists the most recent spreadsheet imports, newest first.
func (s *Service) ImportHistory(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit %d", limit)
	}
	var out []ImportRecord
	err := httpclient.DoJSON(ctx, s.client, http.MethodGet, "/imports/history", &out,
		httpclient.WithQuery(map[string]string{"limit": strconv.Itoa(limit)}),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Holidays lists the marked days of one month.
func (s *Service) Holidays(ctx context.Context, year, month int) ([]Holiday, error) {
	q, err := monthQuery(year, month)
	if err != nil {
		return nil, err
	}
	var out []Holiday
	if err := httpclient.DoJSON(ctx, s.client, http.MethodGet, "/holidays/", &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkHolidays applies b to each day of its range.
func (s *Service) MarkHolidays(ctx context.Context, b HolidayBatch) (Message, error) {
	if err := b.validate(); err != nil {
		return Message{}, err
	}
	return s.message(ctx, http.MethodPost, "/holidays/batch", httpclient.WithJSON(b))
}

// DeleteHoliday removes one marked day.
func (s *Service) DeleteHoliday(ctx context.Context, id int) (Message, error) {
	if id <= 0 {
		return Message{}, fmt.Errorf("invalid holiday id %d", id)
	}
	return s.message(ctx, http.MethodDelete, "/holidays/{id}", idParam(id))
}

// Contacts returns the staff directory ordered by department and name.
func (s *Service) Contacts(ctx context.Context) ([]Contact, error) {
	var out []Contact
	if err := httpclient.DoJSON(ctx, s.client, http.MethodGet, "/contacts/public", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateContact replaces a contact's details.
func (s *Service) UpdateContact(ctx context.Context, id int, u ContactUpdate) (Message, error) {
	if id <= 0 {
		return Message{}, fmt.Errorf("invalid contact id %d", id)
	}
	u.RealName = strings.TrimSpace(u.RealName)
	if u.RealName == "" {
		return Message{}, errors.New("real name is required")
	}
	return s.message(ctx, http.MethodPut, "/contacts/{id}", idParam(id), httpclient.WithJSON(u))
}

// DeleteContact removes a contact. The backend refuses while duties still
// reference the person.
func (s *Service) DeleteContact(ctx context.Context, id int) (Message, error) {
	if id <= 0 {
		return Message{}, fmt.Errorf("invalid contact id %d", id)
	}
	return s.message(ctx, http.MethodDelete, "/contacts/{id}", idParam(id))
}

// ImportContacts uploads a directory spreadsheet (name, department, phone).
// Known names are updated and new ones added.
func (s *Service) ImportContacts(ctx context.Context, filename string, r io.Reader) (Message, error) {
	if err := checkUpload(filename, r); err != nil {
		return Message{}, err
	}
	return s.message(ctx, http.MethodPost, "/contacts/import", httpclient.WithFile("file", filename, r))
}

// Users lists console accounts. Super administrators only.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	var out []User
	if err := httpclient.DoJSON(ctx, s.client, http.MethodGet, "/users/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser adds a console account.
func (s *Service) CreateUser(ctx context.Context, u NewUser) (User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if err := u.validate(); err != nil {
		return User{}, err
	}
	var out User
	if err := httpclient.DoJSON(ctx, s.client, http.MethodPost, "/users/", &out, httpclient.WithJSON(u)); err != nil {
		return User{}, err
	}
	return out, nil
}

// DeleteUser removes a console account. The built-in admin account is kept
// by the backend.
func (s *Service) DeleteUser(ctx context.Context, id int) (Message, error) {
	if id <= 0 {
		return Message{}, fmt.Errorf("invalid user id %d", id)
	}
	return s.message(ctx, http.MethodDelete, "/users/{id}", idParam(id))
}

// NotifyConfig returns the WeCom notification setup.
func (s *Service) NotifyConfig(ctx context.Context) (NotifyConfig, error) {
	var out NotifyConfig
	if err := httpclient.DoJSON(ctx, s.client, http.MethodGet, "/config/wecom", &out); err != nil {
		return NotifyConfig{}, err
	}
	return out, nil
}

// SaveNotifyConfig stores the WeCom setup and reschedules the daily message.
func (s *Service) SaveNotifyConfig(ctx context.Context, c NotifyConfig) (Message, error) {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	if err := c.validate(); err != nil {
		return Message{}, err
	}
	return s.message(ctx, http.MethodPost, "/config/wecom", httpclient.WithJSON(c))
}

// SendNotification pushes today's roster message now.
func (s *Service) SendNotification(ctx context.Context) (json.RawMessage, error) {
	out, err := s.client.Do(ctx, http.MethodPost, "/notify/send")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

func (s *Service) message(ctx context.Context, method, path string, opts ...httpclient.RequestOption) (Message, error) {
	var msg Message
	if err := httpclient.DoJSON(ctx, s.client, method, path, &msg, opts...); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func idParam(id int) httpclient.RequestOption {
	return httpclient.WithPathParam("id", strconv.Itoa(id))
}

func monthQuery(year, month int) (httpclient.RequestOption, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	return httpclient.WithQuery(map[string]string{
		"year":  strconv.Itoa(year),
		"month": strconv.Itoa(month),
	}), nil
}

func checkUpload(filename string, r io.Reader) error {
	if strings.TrimSpace(filename) == "" {
		return errors.New("file name is required")
	}
	if r == nil {
		return errors.New("file content is required")
	}
	return nil
}
