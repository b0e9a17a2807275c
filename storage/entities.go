package storage

import (
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"notevault-api/domain"
)

// Documents are stored as EDM entities: scalar fields map to table
// properties, string sets (tags, linked notes) are JSON-encoded into a single
// string property since tables have no array type.

func noteToEntity(n domain.Note) aztables.EDMEntity {
	props := map[string]any{
		"Title":       n.Title,
		"Content":     n.Content,
		"Slug":        n.Slug,
		"Tags":        encodeStrings(n.Tags),
		"LinkedNotes": encodeStrings(n.LinkedNotes),
		"FolderID":    n.FolderID,
		"IsPinned":    n.IsPinned,
		"IsFavorite":  n.IsFavorite,
		"CreatedAt":   toEDM(n.CreatedAt),
		"UpdatedAt":   toEDM(n.UpdatedAt),
	}
	return aztables.EDMEntity{
		Entity:     aztables.Entity{PartitionKey: n.UserID, RowKey: n.ID},
		Properties: props,
	}
}

func entityToNote(data []byte) (domain.Note, error) {
	var ent aztables.EDMEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Note{}, err
	}
	return domain.Note{
		ID:          ent.RowKey,
		UserID:      ent.PartitionKey,
		Title:       propString(ent, "Title"),
		Content:     propString(ent, "Content"),
		Slug:        propString(ent, "Slug"),
		Tags:        decodeStrings(propString(ent, "Tags")),
		LinkedNotes: decodeStrings(propString(ent, "LinkedNotes")),
		FolderID:    propString(ent, "FolderID"),
		IsPinned:    propBool(ent, "IsPinned"),
		IsFavorite:  propBool(ent, "IsFavorite"),
		CreatedAt:   propTime(ent, "CreatedAt"),
		UpdatedAt:   propTime(ent, "UpdatedAt"),
	}, nil
}

func folderToEntity(f domain.Folder) aztables.EDMEntity {
	return aztables.EDMEntity{
		Entity: aztables.Entity{PartitionKey: f.UserID, RowKey: f.ID},
		Properties: map[string]any{
			"Name":      f.Name,
			"ParentID":  f.ParentID,
			"CreatedAt": toEDM(f.CreatedAt),
			"UpdatedAt": toEDM(f.UpdatedAt),
		},
	}
}

func entityToFolder(data []byte) (domain.Folder, error) {
	var ent aztables.EDMEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Folder{}, err
	}
	return domain.Folder{
		ID:        ent.RowKey,
		UserID:    ent.PartitionKey,
		Name:      propString(ent, "Name"),
		ParentID:  propString(ent, "ParentID"),
		CreatedAt: propTime(ent, "CreatedAt"),
		UpdatedAt: propTime(ent, "UpdatedAt"),
	}, nil
}

func taskToEntity(t domain.Task) aztables.EDMEntity {
	props := map[string]any{
		"Title":        t.Title,
		"Description":  t.Description,
		"Priority":     string(t.Priority),
		"Status":       string(t.Status),
		"Tags":         encodeStrings(t.Tags),
		"LinkedNoteID": t.LinkedNoteID,
		"CreatedAt":    toEDM(t.CreatedAt),
		"UpdatedAt":    toEDM(t.UpdatedAt),
	}
	if t.DueDate != nil {
		props["DueDate"] = toEDM(*t.DueDate)
	}
	if t.CompletedAt != nil {
		props["CompletedAt"] = toEDM(*t.CompletedAt)
	}
	return aztables.EDMEntity{
		Entity:     aztables.Entity{PartitionKey: t.UserID, RowKey: t.ID},
		Properties: props,
	}
}

func entityToTask(data []byte) (domain.Task, error) {
	var ent aztables.EDMEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:           ent.RowKey,
		UserID:       ent.PartitionKey,
		Title:        propString(ent, "Title"),
		Description:  propString(ent, "Description"),
		Priority:     domain.Priority(propString(ent, "Priority")),
		Status:       domain.TaskStatus(propString(ent, "Status")),
		DueDate:      propTimePtr(ent, "DueDate"),
		Tags:         decodeStrings(propString(ent, "Tags")),
		LinkedNoteID: propString(ent, "LinkedNoteID"),
		CreatedAt:    propTime(ent, "CreatedAt"),
		UpdatedAt:    propTime(ent, "UpdatedAt"),
		CompletedAt:  propTimePtr(ent, "CompletedAt"),
	}, nil
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return out
}

func propString(ent aztables.EDMEntity, name string) string {
	if v, ok := ent.Properties[name].(string); ok {
		return v
	}
	return ""
}

func propBool(ent aztables.EDMEntity, name string) bool {
	if v, ok := ent.Properties[name].(bool); ok {
		return v
	}
	return false
}

func propTime(ent aztables.EDMEntity, name string) time.Time {
	if v, ok := ent.Properties[name].(aztables.EDMDateTime); ok {
		return fromEDM(v)
	}
	return time.Time{}
}

func propTimePtr(ent aztables.EDMEntity, name string) *time.Time {
	if v, ok := ent.Properties[name].(aztables.EDMDateTime); ok {
		t := fromEDM(v)
		return &t
	}
	return nil
}
