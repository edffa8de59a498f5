/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAge(t *testing.T) {
	tests := []struct {
		name    string
		age     string
		want    time.Duration
		wantErr bool
	}{
		{name: "minutes", age: "30m", want: 30 * time.Minute},
		{name: "hours", age: "6h", want: 6 * time.Hour},
		{name: "days", age: "2d", want: 48 * time.Hour},
		{name: "weeks", age: "1w", want: 7 * 24 * time.Hour},
		{name: "all units", age: "1w2d3h4m", want: 9*24*time.Hour + 3*time.Hour + 4*time.Minute},
		{name: "subset in order", age: "1w30m", want: 7*24*time.Hour + 30*time.Minute},
		{name: "empty", age: "", wantErr: true},
		{name: "units out of order", age: "30m6h", wantErr: true},
		{name: "unknown unit", age: "5s", wantErr: true},
		{name: "bare number", age: "42", wantErr: true},
		{name: "negative", age: "-1h", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAge(tt.age)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
