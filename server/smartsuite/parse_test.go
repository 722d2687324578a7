package smartsuite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSolutions(t *testing.T) {
	payload := `{"items": [
		{"id": "sol_1", "name": "CRM", "logo_icon": "briefcase", "logo_color": "#3A86FF"},
		{"id": "sol_2", "name": "Projects", "logo_icon": "kanban", "logo_color": "#FB5607"}
	]}`

	solutions, err := ParseSolutions([]byte(payload))
	require.NoError(t, err)
	require.Len(t, solutions, 2)
	assert.Equal(t, "sol_1", solutions[0].ID)
	assert.Equal(t, "CRM", solutions[0].Name)
	assert.Equal(t, "briefcase", solutions[0].LogoIcon)
	assert.Equal(t, "#FB5607", solutions[1].LogoColor)
}

func TestParseSolutionsBareArray(t *testing.T) {
	solutions, err := ParseSolutions([]byte(`[{"id": "sol_1", "name": "CRM"}]`))
	require.NoError(t, err)
	require.Len(t, solutions, 1)
	assert.Equal(t, "sol_1", solutions[0].ID)
}

func TestParseSolutionsBadShape(t *testing.T) {
	_, err := ParseSolutions([]byte(`{"count": 3}`))
	assert.Error(t, err)
}

func TestParseTables(t *testing.T) {
	payload := `{"items": [{
		"id": "tbl_A",
		"name": "Tasks",
		"solution": "sol_1",
		"structure": [
			{"slug": "title", "label": "Title", "field_type": "textfield", "params": {"primary": true}},
			{"slug": "status", "label": "Status", "field_type": "statusfield", "params": {"choices": [{"label": "Active", "value": "active"}]}}
		]
	}]}`

	tables, err := ParseTables([]byte(payload))
	require.NoError(t, err)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, "tbl_A", table.ID)
	assert.Equal(t, "sol_1", table.SolutionID)
	require.Len(t, table.Structure, 2)
	assert.Equal(t, "title", table.Structure[0].Slug)
	assert.True(t, table.Structure[0].IsPrimary())
	assert.False(t, table.Structure[1].IsPrimary())
	assert.Contains(t, table.Structure[1].Params, "choices")
}

func TestParseRecords(t *testing.T) {
	payload := `{"items": [
		{"id": "rec_1", "title": "Task 1", "priority": 1},
		{"id": "rec_2", "title": "Task 2", "tags": ["urgent", "bug"]}
	]}`

	records, err := ParseRecords([]byte(payload))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec_1", records[0].ID())
	assert.Equal(t, "Task 1", records[0]["title"])
	assert.Equal(t, []any{"urgent", "bug"}, records[1]["tags"])
}

func TestParseMembers(t *testing.T) {
	payload := `{"items": [
		{
			"id": "mem_1",
			"email": ["ada@example.com", "ada@backup.example.com"],
			"full_name": {"first_name": "Ada", "last_name": "Lovelace", "sys_root": "Ada Lovelace"},
			"job_title": "Engineer",
			"department": "R&D",
			"role": "admin",
			"status": {"value": "active", "updated_on": "2024-01-01T00:00:00Z"}
		},
		{
			"id": "mem_2",
			"email": "grace@example.com",
			"first_name": "Grace",
			"last_name": "Hopper",
			"status": "inactive",
			"deleted_date": "2024-02-02"
		}
	]}`

	members, err := ParseMembers([]byte(payload))
	require.NoError(t, err)
	require.Len(t, members, 2)

	ada := members[0]
	assert.Equal(t, "ada@example.com", ada.Email)
	assert.Equal(t, "Ada", ada.FirstName)
	assert.Equal(t, "Ada Lovelace", ada.FullName)
	assert.Equal(t, "active", ada.Status)
	assert.True(t, ada.Active())

	grace := members[1]
	assert.Equal(t, "grace@example.com", grace.Email)
	assert.Equal(t, "Grace Hopper", grace.FullName)
	assert.Equal(t, "inactive", grace.Status)
	assert.Equal(t, "2024-02-02", grace.DeletedDate)
	assert.False(t, grace.Active())
}

func TestParseMemberDeletedDateEnvelope(t *testing.T) {
	payload := `[{"id": "mem_3", "email": "x@example.com", "deleted_date": {"date": "2024-03-03"}}]`

	members, err := ParseMembers([]byte(payload))
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "2024-03-03", members[0].DeletedDate)
}

func TestParseMemberNullDeletedDate(t *testing.T) {
	payload := `[{"id": "mem_4", "email": "y@example.com", "deleted_date": null}]`

	members, err := ParseMembers([]byte(payload))
	require.NoError(t, err)
	assert.True(t, members[0].Active())
}

func TestParseTeams(t *testing.T) {
	payload := `{"items": [
		{"id": "team_1", "name": "Platform", "description": "Core platform", "members": ["mem_1", "mem_2"]},
		{"id": "team_2", "name": "Empty", "member_count": 7}
	]}`

	teams, err := ParseTeams([]byte(payload))
	require.NoError(t, err)
	require.Len(t, teams, 2)

	assert.Equal(t, []string{"mem_1", "mem_2"}, teams[0].Members)
	assert.Equal(t, 2, teams[0].MemberCount)
	// member_count from the payload wins over the list length
	assert.Equal(t, 7, teams[1].MemberCount)
}
