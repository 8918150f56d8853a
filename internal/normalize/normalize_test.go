package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRejectsBoilerplate(t *testing.T) {
	rejected := []string{
		"",
		"   ",
		"7",
		"12 34  56",
		"x",
		"Section",
		"section",
		"Issue Date:",
		"Dated: 2021-04-01",
		"Dated : whenever",
		"Change(s):",
		"Issue",
		"Issue:",
		"Issued by: Technical Services",
		"Page: 3 of 10",
		"3 of 10 Maintenance Manual",
		"page: 3 of 10",
		"Chapter 4 ... Table of Contents ...",
		"Fuel system ....................... 17",
		". . . . .",
	}
	for _, input := range rejected {
		_, ok := Line(input)
		assert.Falsef(t, ok, "expected %q to be rejected", input)
	}
}

func TestLineKeepsContent(t *testing.T) {
	kept := []string{
		"Check the oil pressure before each flight.",
		"Torque the propeller bolts to 24 Nm.",
		"Jabiru 5100 engine overhaul schedule",
	}
	for _, input := range kept {
		text, ok := Line(input)
		assert.Truef(t, ok, "expected %q to be kept", input)
		assert.Equal(t, input, text)
	}
}

func TestLineTrims(t *testing.T) {
	text, ok := Line("  Replace the filter.  ")
	assert.True(t, ok)
	assert.Equal(t, "Replace the filter.", text)
}

func TestLineStripsLegalBoilerplate(t *testing.T) {
	text, ok := Line("Check valve clearances. This document is controlled while it remains on the server. Reassemble the cover.")
	assert.True(t, ok)
	assert.Equal(t, "Check valve clearances.  Reassemble the cover.", text)

	text, ok = Line("Once this no longer applies, discard the copy. Torque to spec.")
	assert.True(t, ok)
	assert.Equal(t, "Torque to spec.", text)
}

func TestLineRejectsWhenOnlyLegalBoilerplate(t *testing.T) {
	_, ok := Line("This document is controlled while it remains in the library.")
	assert.False(t, ok)
}

func TestLineTotalOnMalformedInput(t *testing.T) {
	// Must never panic, even on invalid UTF-8.
	text, ok := Line("torque values \xff\xfe are listed below")
	assert.True(t, ok)
	assert.NotEmpty(t, text)
}
