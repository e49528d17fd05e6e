package dto

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateExpenseRequest{
		Description: "  Dinner  ",
		Amount:      " 90.50 ",
		Currency:    " eur ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Dinner", req.Description)
	assert.Equal(t, "90.50", req.Amount)
	assert.Equal(t, "eur", req.Currency)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := CreateExpenseRequest{Description: "taxi <script>alert('x')</script>"}
	SanitizeStruct(&req)

	assert.Contains(t, req.Description, "&lt;script&gt;")
	assert.NotContains(t, req.Description, "<script>")
}

func TestSanitizeStruct_WalksSlicesAndPointers(t *testing.T) {
	req := PreviewRequest{
		Participants: []string{" a "},
		Shares:       []ShareInput{{ParticipantID: " b ", Amount: " 5 "}},
		Edit:         &ShareInput{ParticipantID: " c ", Amount: " 7 "},
	}
	SanitizeStruct(&req)

	assert.Equal(t, []string{"a"}, req.Participants)
	assert.Equal(t, "b", req.Shares[0].ParticipantID)
	assert.Equal(t, "5", req.Shares[0].Amount)
	assert.Equal(t, "c", req.Edit.ParticipantID)
	assert.Equal(t, "7", req.Edit.Amount)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := PreviewRequest{Method: "equal"}
	SanitizeStruct(&req)
	assert.Nil(t, req.Edit)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestCurrencyCode(t *testing.T) {
	for _, tc := range []string{"EUR", "usd", " GBP "} {
		assert.True(t, currencyCodeRe.MatchString(strings.TrimSpace(tc)), "expected valid: %q", tc)
	}
	for _, tc := range []string{"", "EU", "EURO", "E1R", "€€€"} {
		assert.False(t, currencyCodeRe.MatchString(strings.TrimSpace(tc)), "expected invalid: %q", tc)
	}
}

func TestDecimalAmount(t *testing.T) {
	for _, tc := range []string{"0", "10", "33.33", "0.00000001", "999999999999"} {
		assert.True(t, amountRe.MatchString(tc), "expected valid: %s", tc)
	}
	for _, tc := range []string{"", "-5", "1e3", "1,000", "12.", ".5", "abc", "1.123456789"} {
		assert.False(t, amountRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestCreateExpenseRequest_Binding(t *testing.T) {
	valid := CreateExpenseRequest{
		Amount:      "90",
		Currency:    "eur",
		PaidBy:      "7f1c2d8e-4b6a-4f0e-9a53-2b1e8c6d4a10",
		SplitMethod: "equal",
	}
	require.NoError(t, binding.Validator.ValidateStruct(&valid))

	tests := []struct {
		name   string
		mutate func(r *CreateExpenseRequest)
	}{
		{"bad amount", func(r *CreateExpenseRequest) { r.Amount = "ninety" }},
		{"negative amount", func(r *CreateExpenseRequest) { r.Amount = "-1" }},
		{"bad currency", func(r *CreateExpenseRequest) { r.Currency = "EURO" }},
		{"bad payer", func(r *CreateExpenseRequest) { r.PaidBy = "alice" }},
		{"bad method", func(r *CreateExpenseRequest) { r.SplitMethod = "percent" }},
		{"bad category", func(r *CreateExpenseRequest) { r.Category = "food" }},
		{"bad share", func(r *CreateExpenseRequest) {
			r.Shares = []ShareInput{{ParticipantID: r.PaidBy, Amount: "x"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			assert.Error(t, binding.Validator.ValidateStruct(&req))
		})
	}
}

func TestPreviewRequest_AllowsBlankTotal(t *testing.T) {
	req := PreviewRequest{
		Participants: []string{"7f1c2d8e-4b6a-4f0e-9a53-2b1e8c6d4a10"},
		Method:       "manual",
	}
	assert.NoError(t, binding.Validator.ValidateStruct(&req))
}
