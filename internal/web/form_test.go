package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSplitters_IndexedArray(t *testing.T) {
	form := url.Values{
		"splitters[0][user]":            {"squidward"},
		"splitters[0][items][0][name]":  {"Clarinet reed"},
		"splitters[0][items][0][cost]":  {"4.50"},
		"splitters[0][items][1][cost]":  {"2"},
		"splitters[1][user]":            {"spongebob"},
		"splitters[1][paid]":            {"on"},
		"splitters[1][items][0][name]":  {"Krabby Patty"},
		"splitters[1][items][0][cost]":  {"3.99"},
		"splitters[10][user]":           {"patrick12"},
		"splitters[2][user]":            {"sandycheeks"},
		"splitters[2][items][10][cost]": {"1"},
		"splitters[2][items][2][cost]":  {"2"},
	}

	got := parseSplitters(form)
	require.Len(t, got, 4)

	assert.Equal(t, "squidward", got[0].Username)
	require.Len(t, got[0].Items, 2)
	require.NotNil(t, got[0].Items[0].Name)
	assert.Equal(t, "Clarinet reed", *got[0].Items[0].Name)
	assert.Nil(t, got[0].Items[1].Name, "absent name stays nil")
	assert.False(t, got[0].Paid)

	assert.Equal(t, "spongebob", got[1].Username)
	assert.True(t, got[1].Paid)

	assert.Equal(t, "sandycheeks", got[2].Username)
	require.Len(t, got[2].Items, 2)
	assert.Equal(t, "2", got[2].Items[0].Cost, "item 2 sorts before item 10")
	assert.Equal(t, "1", got[2].Items[1].Cost)

	assert.Equal(t, "patrick12", got[3].Username, "splitter 10 sorts after splitter 2")
	assert.Empty(t, got[3].Items)
}

func TestParseSplitters_PushedItems(t *testing.T) {
	form := url.Values{
		"splitters[0][user]":           {"squidward"},
		"splitters[0][items][0][cost]": {"1"},
		"splitters[0][items][][name]":  {"Kelp shake", "Coral bits"},
		"splitters[0][items][][cost]":  {"2.50", "3"},
		"splitters[1][user]":           {"spongebob"},
		"splitters[1][items][][cost]":  {"4"},
	}

	got := parseSplitters(form)
	require.Len(t, got, 2)

	require.Len(t, got[0].Items, 3)
	assert.Equal(t, "1", got[0].Items[0].Cost, "indexed items come first")
	require.NotNil(t, got[0].Items[1].Name)
	assert.Equal(t, "Kelp shake", *got[0].Items[1].Name)
	assert.Equal(t, "2.50", got[0].Items[1].Cost)
	require.NotNil(t, got[0].Items[2].Name)
	assert.Equal(t, "Coral bits", *got[0].Items[2].Name)
	assert.Equal(t, "3", got[0].Items[2].Cost)

	require.Len(t, got[1].Items, 1)
	assert.Nil(t, got[1].Items[0].Name)
	assert.Equal(t, "4", got[1].Items[0].Cost)
}

func TestParseSplitters_SingleObject(t *testing.T) {
	form := url.Values{
		"splitters[user]":           {"squidward"},
		"splitters[paid]":           {"true"},
		"splitters[items][0][name]": {"Tea"},
		"splitters[items][0][cost]": {"3"},
	}

	got := parseSplitters(form)
	require.Len(t, got, 1)
	assert.Equal(t, "squidward", got[0].Username)
	assert.True(t, got[0].Paid)
	require.Len(t, got[0].Items, 1)
	assert.Equal(t, "3", got[0].Items[0].Cost)
}

func TestParseSplitters_ObjectKeysAndBlankUsers(t *testing.T) {
	form := url.Values{
		"splitters[b][user]":           {"spongebob"},
		"splitters[a][user]":           {"squidward"},
		"splitters[c][user]":           {"  "},
		"splitters[c][items][0][cost]": {"9"},
		"title":                        {"ignored"},
		"splitters[0][unknown]":        {"x"},
	}

	got := parseSplitters(form)
	require.Len(t, got, 2)
	assert.Equal(t, "squidward", got[0].Username)
	assert.Equal(t, "spongebob", got[1].Username)
}

func TestParseBillForm(t *testing.T) {
	form := url.Values{
		"title":              {"Dinner"},
		"subtotal":           {"100"},
		"tax":                {"10"},
		"tip":                {"5"},
		"billPayer":          {" mrkrab123 "},
		"complete":           {"on"},
		"splitters[0][user]": {"squidward"},
	}

	got := parseBillForm(form)
	assert.Equal(t, "Dinner", got.Title)
	assert.Equal(t, "100", got.Subtotal)
	assert.Equal(t, "mrkrab123", got.Payer)
	assert.True(t, got.Complete)
	require.Len(t, got.Splitters, 1)

	form.Set("complete", "off")
	assert.False(t, parseBillForm(form).Complete)
}

func TestIsChecked(t *testing.T) {
	for _, v := range []string{"on", "true", "TRUE", "1", "yes"} {
		assert.True(t, isChecked(v), v)
	}
	for _, v := range []string{"", "off", "false", "0", "nope"} {
		assert.False(t, isChecked(v), v)
	}
}
