package payrun

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/validator"
)

func TestOverride_UnmarshalJSON(t *testing.T) {
	type body struct {
		EPF Override `json:"epf_override"`
	}

	t.Run("missing field leaves override untouched", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{}`), &b))
		assert.False(t, b.EPF.Present)

		current := decimal.NewFromInt(50)
		result := b.EPF.Apply(&current)
		require.NotNil(t, result)
		assert.True(t, result.Equal(current))
	})

	t.Run("empty string clears the override", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"epf_override": ""}`), &b))
		assert.True(t, b.EPF.Present)
		assert.True(t, b.EPF.Clear)

		current := decimal.NewFromInt(50)
		assert.Nil(t, b.EPF.Apply(&current))
	})

	t.Run("null clears the override", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"epf_override": null}`), &b))
		assert.True(t, b.EPF.Clear)
	})

	t.Run("zero replaces the computed value", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"epf_override": 0}`), &b))
		assert.True(t, b.EPF.Present)
		assert.False(t, b.EPF.Clear)

		result := b.EPF.Apply(nil)
		require.NotNil(t, result)
		assert.True(t, result.IsZero())
	})

	t.Run("number replaces the computed value", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"epf_override": 123.45}`), &b))

		result := b.EPF.Apply(nil)
		require.NotNil(t, result)
		assert.True(t, result.Equal(decimal.RequireFromString("123.45")))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		var b body
		assert.Error(t, json.Unmarshal([]byte(`{"epf_override": "abc"}`), &b))
	})
}

func TestScope_KeyRoundTrip(t *testing.T) {
	cases := []Scope{
		{Kind: ScopeAll},
		{Kind: ScopeDepartment, ID: "d-1"},
		{Kind: ScopeOutlet, ID: "o-9"},
	}
	for _, scope := range cases {
		parsed, err := ParseScopeKey(scope.Key())
		require.NoError(t, err)
		assert.Equal(t, scope, parsed)
	}

	_, err := ParseScopeKey("branch:x")
	assert.Error(t, err)
	_, err = ParseScopeKey("")
	assert.Error(t, err)
}

func TestCreateRunRequest_Validate(t *testing.T) {
	dept := "d-1"
	outlet := "o-1"

	t.Run("valid", func(t *testing.T) {
		req := CreateRunRequest{Year: 2025, Month: 6}
		assert.NoError(t, req.Validate())
	})

	t.Run("month out of range", func(t *testing.T) {
		req := CreateRunRequest{Year: 2025, Month: 13}
		var errs validator.ValidationErrors
		require.ErrorAs(t, req.Validate(), &errs)
		assert.Contains(t, errs.ToMap(), "month")
	})

	t.Run("scopes are mutually exclusive", func(t *testing.T) {
		req := CreateRunRequest{Year: 2025, Month: 6, DepartmentID: &dept, OutletID: &outlet}
		var errs validator.ValidationErrors
		require.ErrorAs(t, req.Validate(), &errs)
		assert.Contains(t, errs.ToMap(), "scope")
	})

	t.Run("scope resolution", func(t *testing.T) {
		assert.Equal(t, "all", (&CreateRunRequest{}).Scope().Key())
		assert.Equal(t, "dept:d-1", (&CreateRunRequest{DepartmentID: &dept}).Scope().Key())
		assert.Equal(t, "outlet:o-1", (&CreateRunRequest{OutletID: &outlet}).Scope().Key())
	})
}

func TestUpdateItemRequest_Validate(t *testing.T) {
	negative := decimal.NewFromInt(-1)

	req := UpdateItemRequest{BasicSalary: &negative}
	var errs validator.ValidationErrors
	require.ErrorAs(t, req.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "basic_salary")

	// Overrides are money too: a negative value is refused, clearing is fine.
	req = UpdateItemRequest{EPFOverride: Override{Present: true, Value: decimal.NewFromInt(-5)}}
	errs = nil
	require.ErrorAs(t, req.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "epf_override")

	req = UpdateItemRequest{PCBOverride: Override{Present: true, Clear: true}}
	assert.NoError(t, req.Validate())

	assert.NoError(t, (&UpdateItemRequest{}).Validate())
}

func TestChangeSetRequest_Validate(t *testing.T) {
	assert.Error(t, (&ChangeSetRequest{}).Validate())

	req := ChangeSetRequest{Changes: []Change{{ItemID: "", Field: "bonus"}}}
	var errs validator.ValidationErrors
	require.ErrorAs(t, req.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "changes[0].item_id")

	ok := ChangeSetRequest{Changes: []Change{{ItemID: "i-1", Field: "bonus", NewValue: decimal.NewFromInt(10)}}}
	assert.NoError(t, ok.Validate())
}

func TestPeriodHelpers(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2025, time.February))
	assert.Equal(t, 31, DaysInMonth(2025, time.January))

	year, month := PrevPeriod(2025, time.January)
	assert.Equal(t, 2024, year)
	assert.Equal(t, time.December, month)
}
