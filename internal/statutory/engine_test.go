package statutory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine()
	require.NoError(t, err)
	return engine
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLoadTables_EmbeddedVersions(t *testing.T) {
	t.Parallel()

	versions, err := LoadTables()
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "2023-01", versions[0].EffectiveFrom)
	assert.Equal(t, "2024-10", versions[1].EffectiveFrom)
}

func TestTablesFor_VersionSelection(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	tables, err := engine.TablesFor(2024, time.September)
	require.NoError(t, err)
	assert.Equal(t, "2023-01", tables.EffectiveFrom)
	assert.Equal(t, float64(5000), tables.Socso.WageCeiling)

	tables, err = engine.TablesFor(2024, time.October)
	require.NoError(t, err)
	assert.Equal(t, "2024-10", tables.EffectiveFrom)
	assert.Equal(t, float64(6000), tables.Socso.WageCeiling)

	_, err = engine.TablesFor(2022, time.December)
	assert.ErrorIs(t, err, ErrTableMissing)
}

func TestCalculate_CitizenUnder60(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	c, err := engine.Calculate(2025, time.March, dec("3000"), Params{Age: 30, Citizen: true})
	require.NoError(t, err)

	assert.True(t, dec("330").Equal(c.EPFEmployee), "epf employee = %s", c.EPFEmployee)
	assert.True(t, dec("390").Equal(c.EPFEmployer), "epf employer = %s", c.EPFEmployer)

	// Band (2900, 3000], midpoint 2950.
	assert.True(t, dec("14.75").Equal(c.SocsoEmployee), "socso employee = %s", c.SocsoEmployee)
	assert.True(t, dec("51.65").Equal(c.SocsoEmployer), "socso employer = %s", c.SocsoEmployer)
	assert.True(t, dec("5.90").Equal(c.EISEmployee), "eis employee = %s", c.EISEmployee)
	assert.True(t, dec("5.90").Equal(c.EISEmployer), "eis employer = %s", c.EISEmployer)

	// Below threshold after reliefs and rebate.
	assert.True(t, c.PCB.IsZero(), "pcb = %s", c.PCB)
}

func TestCalculate_Age60Schedules(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	c, err := engine.Calculate(2025, time.March, dec("3000"), Params{Age: 60, Citizen: true})
	require.NoError(t, err)

	assert.True(t, c.EPFEmployee.IsZero(), "epf employee = %s", c.EPFEmployee)
	assert.True(t, dec("120").Equal(c.EPFEmployer), "epf employer = %s", c.EPFEmployer)

	// Reduced SOCSO schedule: employer only, 1.25% of midpoint 2950.
	assert.True(t, c.SocsoEmployee.IsZero())
	assert.True(t, dec("36.90").Equal(c.SocsoEmployer), "socso employer = %s", c.SocsoEmployer)

	// EIS stops at 60.
	assert.True(t, c.EISEmployee.IsZero())
	assert.True(t, c.EISEmployer.IsZero())
}

func TestCalculate_NonCitizen60(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	c, err := engine.Calculate(2025, time.March, dec("3000"), Params{Age: 62, Citizen: false})
	require.NoError(t, err)

	assert.True(t, dec("165").Equal(c.EPFEmployee), "epf employee = %s", c.EPFEmployee) // 5.5%
	assert.True(t, dec("195").Equal(c.EPFEmployer), "epf employer = %s", c.EPFEmployer) // 6.5%
}

func TestCalculate_EPFEmployerThreshold(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	// Above RM5,000 the employer rate drops to 12%.
	c, err := engine.Calculate(2025, time.March, dec("5500"), Params{Age: 40, Citizen: true})
	require.NoError(t, err)

	assert.True(t, dec("605").Equal(c.EPFEmployee), "epf employee = %s", c.EPFEmployee)
	assert.True(t, dec("660").Equal(c.EPFEmployer), "epf employer = %s", c.EPFEmployer)
}

func TestCalculate_VoluntaryRateRaisesEmployeeOnly(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	voluntary := dec("13")
	c, err := engine.Calculate(2025, time.March, dec("3000"), Params{Age: 30, Citizen: true, VoluntaryEPFRate: &voluntary})
	require.NoError(t, err)

	assert.True(t, dec("390").Equal(c.EPFEmployee), "epf employee = %s", c.EPFEmployee)
	assert.True(t, dec("390").Equal(c.EPFEmployer), "epf employer = %s", c.EPFEmployer)

	// A voluntary rate below the schedule has no effect.
	low := dec("5")
	c, err = engine.Calculate(2025, time.March, dec("3000"), Params{Age: 30, Citizen: true, VoluntaryEPFRate: &low})
	require.NoError(t, err)
	assert.True(t, dec("330").Equal(c.EPFEmployee), "epf employee = %s", c.EPFEmployee)
}

func TestCalculate_WageCeilingByVersion(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	// September 2024: ceiling 5000, band midpoint 4950.
	c, err := engine.Calculate(2024, time.September, dec("10000"), Params{Age: 30, Citizen: true})
	require.NoError(t, err)
	assert.True(t, dec("24.75").Equal(c.SocsoEmployee), "socso employee = %s", c.SocsoEmployee)
	assert.True(t, dec("9.90").Equal(c.EISEmployee), "eis employee = %s", c.EISEmployee)

	// October 2024: ceiling 6000, band midpoint 5950.
	c, err = engine.Calculate(2024, time.October, dec("10000"), Params{Age: 30, Citizen: true})
	require.NoError(t, err)
	assert.True(t, dec("29.75").Equal(c.SocsoEmployee), "socso employee = %s", c.SocsoEmployee)
	assert.True(t, dec("11.90").Equal(c.EISEmployee), "eis employee = %s", c.EISEmployee)
}

func TestCalculate_SocsoExempt(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	c, err := engine.Calculate(2025, time.March, dec("3000"), Params{Age: 30, Citizen: true, SocsoExempt: true})
	require.NoError(t, err)

	assert.True(t, c.SocsoEmployee.IsZero())
	assert.True(t, c.SocsoEmployer.IsZero())
	assert.True(t, c.EISEmployee.IsZero())
	assert.True(t, c.EISEmployer.IsZero())
	assert.True(t, dec("330").Equal(c.EPFEmployee))
}

func TestCalculate_PCBProgressive(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	// Single, base 10,000/month. Annual 120,000; reliefs 9,000 + EPF
	// capped at 4,000; chargeable 107,000; scale tax 11,150; no rebate.
	c, err := engine.Calculate(2025, time.March, dec("10000"), Params{Age: 30, Citizen: true})
	require.NoError(t, err)

	assert.True(t, dec("1100").Equal(c.EPFEmployee), "epf employee = %s", c.EPFEmployee)
	assert.True(t, dec("929.17").Equal(c.PCB), "pcb = %s", c.PCB)
}

func TestCalculate_PCBSpouseAndDependents(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	single, err := engine.Calculate(2025, time.March, dec("6000"), Params{Age: 35, Citizen: true})
	require.NoError(t, err)

	married, err := engine.Calculate(2025, time.March, dec("6000"), Params{
		Age: 35, Citizen: true, Married: true, SpouseWorking: false, Dependents: 2,
	})
	require.NoError(t, err)

	assert.True(t, married.PCB.LessThan(single.PCB),
		"married with dependents should pay less: %s vs %s", married.PCB, single.PCB)

	// A working spouse forfeits the spouse relief.
	workingSpouse, err := engine.Calculate(2025, time.March, dec("6000"), Params{
		Age: 35, Citizen: true, Married: true, SpouseWorking: true, Dependents: 2,
	})
	require.NoError(t, err)
	assert.True(t, married.PCB.LessThan(workingSpouse.PCB))
}

func TestCalculate_ZeroBase(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	c, err := engine.Calculate(2025, time.March, decimal.Zero, Params{Age: 30, Citizen: true})
	require.NoError(t, err)
	assert.True(t, c.EPFEmployee.IsZero())
	assert.True(t, c.SocsoEmployee.IsZero())
	assert.True(t, c.PCB.IsZero())
}

func TestParseTables_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseTables([]byte("versions: []"))
	assert.Error(t, err)

	_, err = ParseTables([]byte("versions:\n  - effective_from: \"not-a-month\"\n"))
	assert.Error(t, err)
}

func TestAnnualTax_BracketBoundaries(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)
	tables, err := engine.TablesFor(2025, time.January)
	require.NoError(t, err)

	cases := []struct {
		chargeable string
		want       string
	}{
		{"0", "0"},
		{"5000", "0"},
		{"20000", "150"},
		{"35000", "600"},
		{"50000", "1500"},
		{"100000", "9400"},
	}
	for _, tc := range cases {
		got := tables.PCB.AnnualTax(dec(tc.chargeable))
		assert.True(t, dec(tc.want).Equal(got), "chargeable %s: got %s want %s", tc.chargeable, got, tc.want)
	}
}
