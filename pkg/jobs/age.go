/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"regexp"
	"strconv"
	"time"

	imserrors "github.com/Cray-HPE/ims/pkg/errors"
)

// agePattern is the job-age filter grammar: weeks, days, hours and minutes
// in that order, each optional, at least one present.
var agePattern = regexp.MustCompile(`^(?:(\d+)w)?(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?$`)

// ParseAge converts an age filter such as "1w2d" or "6h30m" to a duration.
func ParseAge(age string) (time.Duration, error) {
	match := agePattern.FindStringSubmatch(age)
	if age == "" || match == nil {
		return 0, imserrors.NewBadRequest(
			"invalid age " + strconv.Quote(age) + ", expected [Nw][Nd][Nh][Nm]")
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute}
	var total time.Duration
	for i, unit := range units {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return 0, imserrors.NewBadRequest("invalid age " + strconv.Quote(age))
		}
		total += time.Duration(n) * unit
	}
	return total, nil
}
