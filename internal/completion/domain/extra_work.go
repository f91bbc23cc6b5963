package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ExtraItem is one piece of billable work added on top of the regular job.
type ExtraItem struct {
	Title  string `json:"title"`
	Amount string `json:"amount"`
}

func (i ExtraItem) empty() bool {
	return i.Title == "" && i.Amount == ""
}

// UnmarshalJSON accepts the amount under either "amount" or the older
// "value" key, as a string or a number.
func (i *ExtraItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	i.Title = strings.TrimSpace(scalarString(raw["title"]))
	i.Amount = strings.TrimSpace(scalarString(raw["amount"]))
	if i.Amount == "" {
		i.Amount = strings.TrimSpace(scalarString(raw["value"]))
	}
	return nil
}

// ExtraWork is the stored extra-work column. Older rows hold a single
// "Title|Amount" string, newer rows a JSON array of items.
type ExtraWork interface {
	Items() []ExtraItem
	isExtraWork()
}

// Legacy is the single pipe-delimited entry.
type Legacy struct {
	Item ExtraItem
}

func (l Legacy) Items() []ExtraItem {
	if l.Item.empty() {
		return []ExtraItem{}
	}
	return []ExtraItem{l.Item}
}

func (Legacy) isExtraWork() {}

// ItemList is the JSON array form.
type ItemList []ExtraItem

func (l ItemList) Items() []ExtraItem {
	items := make([]ExtraItem, 0, len(l))
	for _, item := range l {
		if !item.empty() {
			items = append(items, item)
		}
	}
	return items
}

func (ItemList) isExtraWork() {}

// ParseExtraWork reads a stored extra-work value. Malformed JSON yields an
// empty list rather than an error.
func ParseExtraWork(raw string) ExtraWork {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ItemList{}
	}

	if strings.HasPrefix(value, "[") {
		var items []ExtraItem
		if err := json.Unmarshal([]byte(value), &items); err != nil {
			return ItemList{}
		}
		return ItemList(items)
	}

	title, amount, found := strings.Cut(value, "|")
	if !found {
		return Legacy{Item: ExtraItem{Title: value}}
	}
	return Legacy{Item: ExtraItem{
		Title:  strings.TrimSpace(title),
		Amount: strings.TrimSpace(amount),
	}}
}

// EncodeExtraWork always writes the JSON array form. An empty list encodes to
// the empty string.
func EncodeExtraWork(items []ExtraItem) string {
	cleaned := make([]ExtraItem, 0, len(items))
	for _, item := range items {
		item.Title = strings.TrimSpace(item.Title)
		item.Amount = strings.TrimSpace(item.Amount)
		if item.empty() {
			continue
		}
		cleaned = append(cleaned, item)
	}
	if len(cleaned) == 0 {
		return ""
	}

	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// ExtraWorkInput is the request form of extra work: either a stored-style
// string or an array of items.
type ExtraWorkInput struct {
	Items []ExtraItem
}

func (in *ExtraWorkInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		in.Items = ParseExtraWork(raw).Items()
		return nil
	}

	var items []ExtraItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	in.Items = ItemList(items).Items()
	return nil
}

func scalarString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}
