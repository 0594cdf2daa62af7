package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholders(t *testing.T) {
	p := Placeholders{
		FirstName:   "Ana",
		LastName:    "Ruiz",
		Email:       "ana@example.edu",
		SiteName:    "Campus",
		CourseName:  "Calculus I",
		TeacherName: "Tutor Max",
	}

	got := p.Replace("{username} <{email}> at {sitename}/{coursename}, I'm {teachername}. {unknown} {firstname}{lastname}")

	assert.Equal(t, "Ana Ruiz <ana@example.edu> at Campus/Calculus I, I'm Tutor Max. {unknown} AnaRuiz", got)
	assert.Equal(t, "Ana", Placeholders{FirstName: "Ana"}.FullName())
}

func TestParseQuickOptions(t *testing.T) {
	options, err := ParseQuickOptions(`[
		{"icon": "fa-book", "label": "Summarize", "prompt": "Summarize this page"},
		{"icon": "", "label": "  ", "prompt": "no label"},
		{"label": "No prompt"}
	]`)

	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Summarize", options[0].Label)

	options, err = ParseQuickOptions("")
	require.NoError(t, err)
	assert.Nil(t, options)

	_, err = ParseQuickOptions("{broken")
	assert.Error(t, err)
}
