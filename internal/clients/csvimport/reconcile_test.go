package csvimport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai-secretary/ai-secretary/internal/customfields"
)

func TestDetectStandard(t *testing.T) {
	std := DetectStandard([]string{"Nume Complet", "E-mail / Email", "Nr. Telefon", "Observatii", "Marca"})
	require.Equal(t, StandardColumns{Name: 0, Email: 1, Phone: 2, Notes: 3}, std)

	std = DetectStandard([]string{"Marca", "PHONE", "Client Name"})
	require.Equal(t, StandardColumns{Name: 2, Email: -1, Phone: 1, Notes: -1}, std)
}

func TestDetectStandardHeaderServesOneTarget(t *testing.T) {
	std := DetectStandard([]string{"Nume si email", "Email"})
	require.Equal(t, 0, std.Name)
	require.Equal(t, 1, std.Email)

	std = DetectStandard([]string{"Nume email"})
	require.Equal(t, 0, std.Name)
	require.Equal(t, -1, std.Email)
}

func TestNameHeaderCreatesNoField(t *testing.T) {
	headers := []string{"Nume Complet"}
	std := DetectStandard(headers)
	require.Equal(t, 0, std.Name)

	rec := ReconcileFields(headers, std, nil)
	require.Empty(t, rec.ToCreate)
	require.Equal(t, ColumnMapping{"name": "Nume Complet", "email": Ignore, "phone": Ignore, "notes": Ignore},
		BuildMapping(headers, std, nil, nil))
}

func TestUnknownHeaderIsPlanned(t *testing.T) {
	headers := []string{"Nume", "Marca masina"}
	rec := ReconcileFields(headers, DetectStandard(headers), nil)
	require.Equal(t, []PlannedField{{Header: "Marca masina", Index: 1}}, rec.ToCreate)
}

func TestNormalizedHeaderMatchesExistingField(t *testing.T) {
	headers := []string{"Nume", "marca_masina"}
	existing := []customfields.Field{{ID: "f-1", Name: "Marca masina", Type: customfields.TypeText}}
	std := DetectStandard(headers)

	rec := ReconcileFields(headers, std, existing)
	require.Empty(t, rec.ToCreate)
	require.Equal(t, map[string]int{"f-1": 1}, rec.Matched)
	require.Equal(t, "marca_masina", BuildMapping(headers, std, existing, nil)["f-1"])
}

func TestMatchPrefersStrongerTier(t *testing.T) {
	headers := []string{"Nume", "Model masina", "model"}
	existing := []customfields.Field{{ID: "f-1", Name: "Model"}}
	m := BuildMapping(headers, DetectStandard(headers), existing, nil)
	require.Equal(t, "model", m["f-1"])
}

func TestSubstringMatchIsLoose(t *testing.T) {
	require.Equal(t, substringMatch, matchHeader("An", "Marca masina Dacia An"))
	require.Equal(t, compactMatch, matchHeader("nr.inmatriculare", "Nr inmatriculare"))
	require.Equal(t, exactMatch, matchHeader("MARCA", "marca"))
	require.Equal(t, noMatch, matchHeader("", "marca"))
}

func TestPlannedFieldsAreDeduplicated(t *testing.T) {
	headers := []string{"Nume", "Marca masina", "marca-masina", ""}
	rec := ReconcileFields(headers, DetectStandard(headers), nil)
	require.Equal(t, []PlannedField{{Header: "Marca masina", Index: 1}}, rec.ToCreate)
}

func TestCreatedFieldsMapToSourceHeader(t *testing.T) {
	headers := []string{"Nume", "Marca", "Marca masina"}
	std := DetectStandard(headers)
	fields := []customfields.Field{{ID: "new-1", Name: "Marca"}, {ID: "new-2", Name: "Marca masina"}}

	m := BuildMapping(headers, std, fields, map[string]string{"new-1": "Marca", "new-2": "Marca masina"})
	require.Equal(t, "Marca", m["new-1"])
	require.Equal(t, "Marca masina", m["new-2"])
}

func TestValidateMapping(t *testing.T) {
	headers := []string{"Nume", "Marca"}
	fields := []customfields.Field{{ID: "f-1", Name: "Marca", Required: true}, {ID: "f-2", Name: "VIN", Required: true}}

	report := ValidateMapping(ColumnMapping{"name": "Nume", "f-1": "Marca", "f-2": Ignore}, headers, fields)
	require.False(t, report.Blocking())
	require.NoError(t, report.Err())
	require.Equal(t, []string{"f-2"}, report.MissingRequired)

	report = ValidateMapping(ColumnMapping{"name": Ignore, "email": "Mail", "ghost": "Nume"}, headers, fields)
	require.True(t, report.Blocking())
	require.Contains(t, report.Problems, "name")
	require.Contains(t, report.Problems, "email")
	require.Contains(t, report.Problems, "ghost")
	require.Error(t, report.Err())
}
