package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/utils"
)

// Text trims s and checks that it is non-empty and at most max runes.
func Text(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperrors.Invalidf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", apperrors.Invalidf("%s must be at most %d characters", field, max)
	}
	return s, nil
}

// OptionalText trims s and checks its length; empty is allowed.
func OptionalText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		return "", apperrors.Invalidf("%s must be at most %d characters", field, max)
	}
	return s, nil
}

func HabitTitle(s string) (string, error) {
	return Text("title", s, constants.MaxHabitTitleLength)
}

func TaskTitle(s string) (string, error) {
	return Text("title", s, constants.MaxTaskTitleLength)
}

func GroupName(s string) (string, error) {
	return Text("name", s, constants.MaxGroupNameLength)
}

func Description(s string) (string, error) {
	return OptionalText("description", s, constants.MaxDescriptionLength)
}

// Frequency normalizes and checks a frequency rule.
func Frequency(s string) (string, error) {
	f, err := habits.ParseFrequency(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", apperrors.Invalidf("%v", err)
	}
	return f.String(), nil
}

// Priority defaults to medium when empty.
func Priority(s string) (constants.TaskPriority, error) {
	p := constants.TaskPriority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return constants.PriorityMedium, nil
	case constants.PriorityLow, constants.PriorityMedium, constants.PriorityHigh:
		return p, nil
	}
	return "", apperrors.Invalidf("priority must be low, medium or high, got %q", s)
}

func Role(s string) (constants.MemberRole, error) {
	r := constants.MemberRole(strings.ToLower(strings.TrimSpace(s)))
	if r != constants.RoleAdmin && r != constants.RoleMember {
		return "", apperrors.Invalidf("role must be admin or member, got %q", s)
	}
	return r, nil
}

func Day(field, s string) error {
	if !utils.ValidateDateFormat(s) {
		return apperrors.Invalidf("%s must be a YYYY-MM-DD date, got %q", field, s)
	}
	return nil
}

// InviteCode upper-cases a code and checks it against the invite alphabet.
func InviteCode(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != constants.InviteCodeLength {
		return "", apperrors.Invalidf("invite code must be %d characters", constants.InviteCodeLength)
	}
	for _, r := range code {
		if !strings.ContainsRune(constants.InviteCodeAlphabet, r) {
			return "", apperrors.Invalidf("invite code contains invalid character %q", r)
		}
	}
	return code, nil
}

// Setting checks a value for a known settings key.
func Setting(key, value string) error {
	switch key {
	case constants.SettingTimezone:
		if !utils.ValidateTimezone(value) {
			return apperrors.Invalidf("unknown timezone %q", value)
		}
	case constants.SettingWeekStart:
		if value != "monday" && value != "sunday" {
			return apperrors.Invalidf("week_start must be monday or sunday")
		}
	case constants.SettingReminderTime:
		if !utils.ValidateTimeFormat(value) {
			return apperrors.Invalidf("reminder_time must be HH:MM, got %q", value)
		}
	case constants.SettingCoachModel:
		if strings.TrimSpace(value) == "" {
			return apperrors.Invalidf("coach_model cannot be empty")
		}
	case constants.SettingDefaultUser:
	default:
		return apperrors.Invalidf("unknown setting %q", key)
	}
	return nil
}
