package casestore

import (
	"fmt"
	"strings"
)

const (
	sequenceWidth = 5
	yearWidth     = 4
	folderPrefix  = "SEI_"
)

// Number is a parsed SEI process number.
type Number struct {
	Sequence string
	Year     string
}

// ParseNumber accepts "NNNNN/YYYY" (sequence zero-padded to five digits) and
// the compact all-digit form "NNNNNYYYY", where the last four digits are the year.
func ParseNumber(raw string) (Number, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Number{}, fmt.Errorf("%w: process number is empty", ErrInputFormat)
	}

	var seq, year string
	if before, after, ok := strings.Cut(value, "/"); ok {
		seq, year = strings.TrimSpace(before), strings.TrimSpace(after)
	} else {
		if !isDigits(value) || len(value) <= yearWidth || len(value) > sequenceWidth+yearWidth {
			return Number{}, fmt.Errorf("%w: process number %q must look like NNNNN/YYYY", ErrInputFormat, raw)
		}
		seq, year = value[:len(value)-yearWidth], value[len(value)-yearWidth:]
	}

	if seq == "" || len(seq) > sequenceWidth || !isDigits(seq) {
		return Number{}, fmt.Errorf("%w: sequence %q must have 1 to %d digits", ErrInputFormat, seq, sequenceWidth)
	}
	if len(year) != yearWidth || !isDigits(year) {
		return Number{}, fmt.Errorf("%w: year %q must have %d digits", ErrInputFormat, year, yearWidth)
	}

	return Number{
		Sequence: strings.Repeat("0", sequenceWidth-len(seq)) + seq,
		Year:     year,
	}, nil
}

// FolderName returns the canonical case folder name, e.g. SEI_00166_2025.
func (n Number) FolderName() string {
	return folderPrefix + n.Sequence + "_" + n.Year
}

func (n Number) String() string {
	return n.Sequence + "/" + n.Year
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
