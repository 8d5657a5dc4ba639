package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LoginResult is the token endpoint's answer.
type LoginResult struct {
	AccessToken string `json:"access_token" yaml:"access_token"`
	TokenType   string `json:"token_type" yaml:"token_type"`
	Role        string `json:"role" yaml:"role"`
}

// BalanceRow is one person's compensatory leave balance for a year.
type BalanceRow struct {
	Name              string `json:"name" yaml:"name"`
	TotalEarnedDays   int    `json:"total_earned_days" yaml:"total_earned_days"`
	TotalRedeemedDays int    `json:"total_redeemed_days" yaml:"total_redeemed_days"`
	Balance           int    `json:"balance" yaml:"balance"`
}

// CalendarEvent is a duty day or a redeemed leave day.
type CalendarEvent struct {
	Title        string `json:"title" yaml:"title"`
	Start        string `json:"start" yaml:"start"`
	Color        string `json:"color" yaml:"color"`
	Type         string `json:"type" yaml:"type"`
	ScheduleID   int    `json:"schedule_id,omitempty" yaml:"schedule_id,omitempty"`
	RedemptionID int    `json:"redemption_id,omitempty" yaml:"redemption_id,omitempty"`
	FromDate     string `json:"from_date,omitempty" yaml:"from_date,omitempty"`
}

// Quota is the leave still available from one duty day.
type Quota struct {
	ID        int    `json:"id" yaml:"id"`
	Date      string `json:"date" yaml:"date"`
	Remaining int    `json:"remaining" yaml:"remaining"`
}

// Calendar is the compensatory calendar of one person.
type Calendar struct {
	Events    []CalendarEvent `json:"events" yaml:"events"`
	QuotaList []Quota         `json:"quota_list" yaml:"quota_list"`
}

// RedeemRequest books leave on RedeemDate (YYYY-MM-DD) against ScheduleID.
type RedeemRequest struct {
	StaffName  string `json:"staff_name" yaml:"staff_name"`
	RedeemDate string `json:"redeem_date" yaml:"redeem_date"`
	ScheduleID int    `json:"schedule_id" yaml:"schedule_id"`
}

func (r RedeemRequest) validate() error {
	if strings.TrimSpace(r.StaffName) == "" {
		return errors.New("staff name is required")
	}
	if err := validateDate("redeem date", r.RedeemDate); err != nil {
		return err
	}
	if r.ScheduleID <= 0 {
		return fmt.Errorf("invalid schedule id %d", r.ScheduleID)
	}
	return nil
}

// Message is the acknowledgement returned by write endpoints. The backend
// answers with either "message" or "msg"; both land in Message.
type Message struct {
	Message     string `json:"message" yaml:"message"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var raw struct {
		Message     string `json:"message"`
		Msg         string `json:"msg"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.Message = raw.Message
	if m.Message == "" {
		m.Message = raw.Msg
	}
	m.Description = raw.Description
	return nil
}

// Schedule is one person's duty on one day.
type Schedule struct {
	ID            int    `json:"id" yaml:"id"`
	Date          string `json:"date" yaml:"date"`
	DutyType      string `json:"duty_type" yaml:"duty_type"`
	StaffName     string `json:"staff_name" yaml:"staff_name"`
	StaffPhone    string `json:"staff_phone" yaml:"staff_phone"`
	RedeemedCount int    `json:"redeemed_count" yaml:"redeemed_count"`
}

func (s Schedule) validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("invalid schedule id %d", s.ID)
	}
	if err := validateDate("date", s.Date); err != nil {
		return err
	}
	if strings.TrimSpace(s.DutyType) == "" {
		return errors.New("duty type is required")
	}
	if strings.TrimSpace(s.StaffName) == "" {
		return errors.New("staff name is required")
	}
	return nil
}

// ImportRecord is one entry of the spreadsheet import history.
type ImportRecord struct {
	ID           int    `json:"id" yaml:"id"`
	Filename     string `json:"filename" yaml:"filename"`
	ImportType   string `json:"import_type" yaml:"import_type"`
	OperatorName string `json:"operator_name" yaml:"operator_name"`
	Description  string `json:"description" yaml:"description"`
	RowCount     int    `json:"row_count" yaml:"row_count"`
	ImportTime   string `json:"import_time" yaml:"import_time"`
}

// Holiday marks a day as a public holiday or make-up working day, and/or as
// part of a guarantee period with extra staffing.
type Holiday struct {
	ID            int     `json:"id" yaml:"id"`
	Date          string  `json:"date" yaml:"date"`
	Name          *string `json:"name" yaml:"name"`
	Type          *string `json:"type" yaml:"type"`
	IsGuarantee   bool    `json:"is_guarantee" yaml:"is_guarantee"`
	GuaranteeName *string `json:"guarantee_name" yaml:"guarantee_name"`
}

// HolidayBatch applies the same marking to every day from StartDate to
// EndDate inclusive. UpdateType and UpdateGuarantee select which half is
// written; a nil Type with UpdateType set clears the day type. Days left with
// neither a type nor a guarantee are removed by the backend.
type HolidayBatch struct {
	StartDate       string  `json:"start_date" yaml:"start_date"`
	EndDate         string  `json:"end_date" yaml:"end_date"`
	UpdateType      bool    `json:"update_type" yaml:"update_type"`
	Name            *string `json:"name" yaml:"name"`
	Type            *string `json:"type" yaml:"type"`
	UpdateGuarantee bool    `json:"update_guarantee" yaml:"update_guarantee"`
	IsGuarantee     bool    `json:"is_guarantee" yaml:"is_guarantee"`
	GuaranteeName   *string `json:"guarantee_name" yaml:"guarantee_name"`
}

func (b HolidayBatch) validate() error {
	if err := validateDate("start date", b.StartDate); err != nil {
		return err
	}
	if err := validateDate("end date", b.EndDate); err != nil {
		return err
	}
	if b.EndDate < b.StartDate {
		return fmt.Errorf("end date %s is before start date %s", b.EndDate, b.StartDate)
	}
	if !b.UpdateType && !b.UpdateGuarantee {
		return errors.New("nothing to change: set a day type or a guarantee period")
	}
	return nil
}

// Contact is a staff member in the public directory.
type Contact struct {
	ID         int    `json:"id" yaml:"id"`
	RealName   string `json:"real_name" yaml:"real_name"`
	Department string `json:"department" yaml:"department"`
	Phone      string `json:"phone" yaml:"phone"`
}

// ContactUpdate replaces a contact's name, phone and department.
type ContactUpdate struct {
	RealName   string  `json:"real_name" yaml:"real_name"`
	Phone      *string `json:"phone" yaml:"phone"`
	Department *string `json:"department" yaml:"department"`
}

// User is a console account as listed by administrators.
type User struct {
	ID         int    `json:"id" yaml:"id"`
	Username   string `json:"username" yaml:"username"`
	RealName   string `json:"real_name" yaml:"real_name"`
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
	Role       string `json:"role" yaml:"role"`
}

// NewUser is the payload for creating an account.
type NewUser struct {
	Username string `json:"username" yaml:"username"`
	RealName string `json:"real_name" yaml:"real_name"`
	Password string `json:"password" yaml:"-"`
	Role     string `json:"role" yaml:"role"`
}

func (u NewUser) validate() error {
	switch {
	case strings.TrimSpace(u.Username) == "":
		return errors.New("username is required")
	case strings.TrimSpace(u.RealName) == "":
		return errors.New("real name is required")
	case u.Password == "":
		return errors.New("password is required")
	case strings.TrimSpace(u.Role) == "":
		return errors.New("role is required")
	}
	return nil
}

// NotifyConfig is the WeCom group-bot notification setup. DailyTime (HH:MM)
// schedules the daily roster message; empty disables it.
type NotifyConfig struct {
	WebhookURL      string  `json:"webhook_url" yaml:"webhook_url"`
	MessageTemplate string  `json:"message_template" yaml:"message_template"`
	DailyTime       *string `json:"daily_time" yaml:"daily_time"`
}

func (c NotifyConfig) validate() error {
	if strings.TrimSpace(c.WebhookURL) == "" {
		return errors.New("webhook url is required")
	}
	if c.DailyTime != nil && *c.DailyTime != "" {
		if _, err := time.Parse("15:04", *c.DailyTime); err != nil {
			return fmt.Errorf("invalid daily time %q (expected HH:MM)", *c.DailyTime)
		}
	}
	return nil
}

func validateDate(field, value string) error {
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return fmt.Errorf("invalid %s %q (expected YYYY-MM-DD)", field, value)
	}
	return nil
}
