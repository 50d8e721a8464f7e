package web

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	api "github.com/yurawu27/splittie/pkg/api"
)

// Nested splitter fields arrive qs-style:
//
//	splitters[0][user]=squidward
//	splitters[0][paid]=on
//	splitters[0][items][1][cost]=4.50
//	splitters[0][items][][cost]=2
//
// Push-style item fields (an empty index) pair up by occurrence: the k-th
// value of each field builds the k-th pushed item, placed after the indexed
// items.
// A form with a single splitter may drop the index: splitters[user]=squidward.
// Non-numeric indexes (splitters[a][user]) are accepted as object keys.
var (
	splitterField = regexp.MustCompile(`^splitters(?:\[([^\]\[]+)\])?\[(user|paid)\]$`)
	itemField     = regexp.MustCompile(`^splitters(?:\[([^\]\[]+)\])?\[items\](\[([^\]\[]*)\])?\[(name|cost)\]$`)
)

type formItem struct {
	name *string
	cost string
}

func (item *formItem) set(field, value string) {
	switch field {
	case "name":
		item.name = &value
	case "cost":
		item.cost = value
	}
}

type formSplitter struct {
	user   string
	paid   bool
	items  map[string]*formItem
	pushed []*formItem
}

// billForm is the bill create/update form after normalization.
type billForm struct {
	Title     string
	Subtotal  string
	Tax       string
	Tip       string
	Payer     string
	Complete  bool
	Splitters []api.SplitterInput
}

func parseBillForm(form url.Values) billForm {
	return billForm{
		Title:     form.Get("title"),
		Subtotal:  form.Get("subtotal"),
		Tax:       form.Get("tax"),
		Tip:       form.Get("tip"),
		Payer:     strings.TrimSpace(form.Get("billPayer")),
		Complete:  form.Get("complete") == "on",
		Splitters: parseSplitters(form),
	}
}

// parseSplitters collects every splitters[...] field into an ordered list.
// Entries without a username are dropped.
func parseSplitters(form url.Values) []api.SplitterInput {
	splitters := map[string]*formSplitter{}
	get := func(key string) *formSplitter {
		sp, ok := splitters[key]
		if !ok {
			sp = &formSplitter{items: map[string]*formItem{}}
			splitters[key] = sp
		}
		return sp
	}

	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		value := values[0]

		if m := splitterField.FindStringSubmatch(key); m != nil {
			sp := get(m[1])
			switch m[2] {
			case "user":
				sp.user = strings.TrimSpace(value)
			case "paid":
				sp.paid = isChecked(value)
			}
			continue
		}

		if m := itemField.FindStringSubmatch(key); m != nil {
			sp := get(m[1])
			if m[2] != "" && m[3] == "" {
				for k, v := range values {
					for len(sp.pushed) <= k {
						sp.pushed = append(sp.pushed, &formItem{})
					}
					sp.pushed[k].set(m[4], v)
				}
				continue
			}
			item, ok := sp.items[m[3]]
			if !ok {
				item = &formItem{}
				sp.items[m[3]] = item
			}
			item.set(m[4], value)
		}
	}

	out := make([]api.SplitterInput, 0, len(splitters))
	for _, key := range sortedKeys(splitters) {
		sp := splitters[key]
		if sp.user == "" {
			continue
		}
		in := api.SplitterInput{Username: sp.user, Paid: sp.paid}
		for _, itemKey := range sortedKeys(sp.items) {
			item := sp.items[itemKey]
			in.Items = append(in.Items, api.ItemInput{Name: item.name, Cost: item.cost})
		}
		for _, item := range sp.pushed {
			in.Items = append(in.Items, api.ItemInput{Name: item.name, Cost: item.cost})
		}
		out = append(out, in)
	}
	return out
}

func isChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// sortedKeys orders numeric keys numerically, ahead of any others, which
// sort lexically.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
