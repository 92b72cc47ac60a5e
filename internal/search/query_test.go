package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Expr
	}{
		{"empty", "", Expr{}},
		{"blank", "   ", Expr{}},
		{"star", "*", Expr{}},
		{"star field", "*:*", Expr{}},
		{"single term", "medio", Expr{Match: `"medio"`}},
		{"implicit and", "camisa azul", Expr{Match: `"camisa" AND "azul"`}},
		{"explicit and", "camisa AND azul", Expr{Match: `"camisa" AND "azul"`}},
		{"or", "P OR M", Expr{Match: `"P" OR "M"`}},
		{"leading operator", "OR P", Expr{Match: `"P"`}},
		{"trailing operator", "P AND", Expr{Match: `"P"`}},
		{"lowercase operator is a term", "p or m", Expr{Match: `"p" AND "or" AND "m"`}},
		{"prefix", "med*", Expr{Match: `"med"*`}},
		{"phrase", `"extra grande"`, Expr{Match: `"extra grande"`}},
		{"phrase prefix", `"extra gra"*`, Expr{Match: `"extra gra"*`}},
		{"field", "name:GG", Expr{Match: `name:"GG"`}},
		{"field case", "Description:largo", Expr{Match: `description:"largo"`}},
		{"field phrase", `description:"bem largo"`, Expr{Match: `description:"bem largo"`}},
		{"unknown field", "size:M", Expr{Match: `"M"`}},
		{"negated", "camisa -azul", Expr{Match: `"camisa"`, Exclude: `"azul"`}},
		{"bang negated", "camisa !azul", Expr{Match: `"camisa"`, Exclude: `"azul"`}},
		{"not", "camisa NOT azul NOT verde", Expr{Match: `"camisa"`, Exclude: `"azul" OR "verde"`}},
		{"only negative", "-azul", Expr{Exclude: `"azul"`}},
		{"required", "+camisa", Expr{Match: `"camisa"`}},
		{"special characters", "ca(mi)sa~2 ^3", Expr{Match: `"camisa2" AND "3"`}},
		{"only special characters", "() [] {}", Expr{}},
		{"quote escaping in phrase", `"a""b"`, Expr{Match: `"a b"`}},
		{"unicode", "Médio", Expr{Match: `"Médio"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Translate(tt.query))
		})
	}
}

func TestExpr_MatchAll(t *testing.T) {
	assert.True(t, Translate("*").MatchAll())
	assert.False(t, Translate("-P").MatchAll())
	assert.False(t, Translate("P").MatchAll())
}
