// Package holiday exposes the operator-maintained holiday calendar consumed by
// delivery-fee pricing. The calendar is a YAML file of ISO dates reloaded on change.
package holiday

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

// Calendar is an immutable set of holiday dates.
type Calendar struct {
	dates map[string]struct{}
}

// IsHoliday reports whether the given day is a configured holiday.
func (c Calendar) IsHoliday(t time.Time) bool {
	if c.dates == nil {
		return false
	}
	_, ok := c.dates[t.UTC().Format(dateLayout)]
	return ok
}

// Dates returns the configured dates, sorted lexicographically.
func (c Calendar) Dates() []string {
	out := make([]string, 0, len(c.dates))
	for d := range c.dates {
		out = append(out, d)
	}
	return out
}

// CalendarHolder holds the current calendar behind an atomic swap so pricing
// always reads a complete snapshot.
type CalendarHolder struct {
	current atomic.Value // holds Calendar
}

// NewCalendarHolder loads holidays.yml and watches it for changes.
// A missing file yields an empty calendar.
func NewCalendarHolder() (*CalendarHolder, error) {
	v := viper.New()

	v.SetConfigName("holidays")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/dispatch/config")
	v.AddConfigPath("/etc/dispatch")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DISPATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("holidays", []string{})
	}

	cal, err := parseCalendar(v.GetStringSlice("holidays"))
	if err != nil {
		return nil, err
	}

	holder := &CalendarHolder{}
	holder.current.Store(cal)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := parseCalendar(v.GetStringSlice("holidays"))
		if err != nil {
			log.Printf("[holiday-calendar] invalid calendar ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[holiday-calendar] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Get returns the current calendar snapshot.
func (h *CalendarHolder) Get() Calendar {
	return h.current.Load().(Calendar)
}

// NewStaticCalendar builds a calendar from explicit dates. Intended for tests.
func NewStaticCalendar(dates ...string) (Calendar, error) {
	return parseCalendar(dates)
}

func parseCalendar(raw []string) (Calendar, error) {
	dates := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		value := strings.TrimSpace(entry)
		if value == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, value); err != nil {
			return Calendar{}, fmt.Errorf("invalid holiday date %q: %w", value, err)
		}
		dates[value] = struct{}{}
	}
	return Calendar{dates: dates}, nil
}
