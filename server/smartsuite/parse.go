package smartsuite

import (
	"encoding/json"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/tidwall/gjson"
)

// Upstream payloads vary in shape between endpoints and API versions, so
// parsing goes through gjson instead of rigid struct decoding. List
// endpoints wrap their payload in {items: [...]} or return a bare array.

// itemsOf returns the element list of a payload, accepting both the
// {items: [...]} envelope and a bare JSON array.
func itemsOf(data []byte) ([]gjson.Result, error) {
	parsed := gjson.ParseBytes(data)
	if items := parsed.Get("items"); items.IsArray() {
		return items.Array(), nil
	}
	if parsed.IsArray() {
		return parsed.Array(), nil
	}
	return nil, errors.New(ErrPayloadShape, "payload is neither an array nor an items envelope", nil)
}

// ParseSolutions decodes a solutions list payload.
func ParseSolutions(data []byte) ([]Solution, error) {
	items, err := itemsOf(data)
	if err != nil {
		return nil, err
	}

	solutions := make([]Solution, 0, len(items))
	for _, item := range items {
		solutions = append(solutions, Solution{
			ID:        item.Get("id").String(),
			Name:      item.Get("name").String(),
			LogoIcon:  item.Get("logo_icon").String(),
			LogoColor: item.Get("logo_color").String(),
		})
	}
	return solutions, nil
}

// ParseTables decodes an applications list payload, including each table's
// field structure.
func ParseTables(data []byte) ([]Table, error) {
	items, err := itemsOf(data)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(items))
	for _, item := range items {
		table := Table{
			ID:         item.Get("id").String(),
			Name:       item.Get("name").String(),
			SolutionID: item.Get("solution").String(),
		}
		if table.SolutionID == "" {
			table.SolutionID = item.Get("solution_id").String()
		}

		for _, field := range item.Get("structure").Array() {
			descriptor := FieldDescriptor{
				Slug:      field.Get("slug").String(),
				Label:     field.Get("label").String(),
				FieldType: field.Get("field_type").String(),
			}
			if params := field.Get("params"); params.IsObject() {
				decoded := map[string]any{}
				if err := json.Unmarshal([]byte(params.Raw), &decoded); err == nil {
					descriptor.Params = decoded
				}
			}
			table.Structure = append(table.Structure, descriptor)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// ParseRecords decodes a records list payload into generic records.
func ParseRecords(data []byte) ([]Record, error) {
	items, err := itemsOf(data)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		record := Record{}
		if err := json.Unmarshal([]byte(item.Raw), &record); err != nil {
			return nil, errors.New(ErrPayloadShape, "failed to decode record", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ParseMembers decodes a members list payload. Email may be a single string
// or a list (the first entry is canonical); status may be a string or a
// {value, updated_on} envelope; names may be flat or nested under
// full_name.
func ParseMembers(data []byte) ([]Member, error) {
	items, err := itemsOf(data)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(items))
	for _, item := range items {
		members = append(members, parseMember(item))
	}
	return members, nil
}

func parseMember(item gjson.Result) Member {
	member := Member{
		ID:         item.Get("id").String(),
		JobTitle:   item.Get("job_title").String(),
		Department: item.Get("department").String(),
		Role:       item.Get("role").String(),
	}

	email := item.Get("email")
	if email.IsArray() {
		if list := email.Array(); len(list) > 0 {
			member.Email = list[0].String()
		}
	} else {
		member.Email = email.String()
	}

	fullName := item.Get("full_name")
	if fullName.IsObject() {
		member.FirstName = fullName.Get("first_name").String()
		member.LastName = fullName.Get("last_name").String()
		member.FullName = fullName.Get("sys_root").String()
	} else {
		member.FirstName = item.Get("first_name").String()
		member.LastName = item.Get("last_name").String()
		member.FullName = fullName.String()
	}
	if member.FullName == "" && (member.FirstName != "" || member.LastName != "") {
		member.FullName = joinName(member.FirstName, member.LastName)
	}

	status := item.Get("status")
	if status.IsObject() {
		member.Status = status.Get("value").String()
	} else {
		member.Status = status.String()
	}

	deleted := item.Get("deleted_date")
	if deleted.IsObject() {
		member.DeletedDate = deleted.Get("date").String()
	} else if deleted.Exists() && deleted.Type != gjson.Null {
		member.DeletedDate = deleted.String()
	}

	return member
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// ParseTeams decodes a teams list payload.
func ParseTeams(data []byte) ([]Team, error) {
	items, err := itemsOf(data)
	if err != nil {
		return nil, err
	}

	teams := make([]Team, 0, len(items))
	for _, item := range items {
		team := Team{
			ID:          item.Get("id").String(),
			Name:        item.Get("name").String(),
			Description: item.Get("description").String(),
		}
		for _, memberID := range item.Get("members").Array() {
			team.Members = append(team.Members, memberID.String())
		}
		team.MemberCount = len(team.Members)
		if count := item.Get("member_count"); count.Exists() {
			team.MemberCount = int(count.Int())
		}
		teams = append(teams, team)
	}
	return teams, nil
}
