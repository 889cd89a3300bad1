package fact

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermString(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"number", Number(42), "42"},
		{"negative number", Number(-3), "-3"},
		{"string", String("a b"), `"a b"`},
		{"escaped string", String("say \"hi\"\n\\"), `"say \"hi\"\n\\"`},
		{"constant", Function("robot"), "robot"},
		{"function", Function("robot", Number(1)), "robot(1)"},
		{"tuple", Tuple(Number(0), Number(1)), "(0,1)"},
		{"one tuple", Tuple(Number(7)), "(7,)"},
		{"empty tuple", Tuple(), "()"},
		{"negated", Negated("at", Number(1)), "-at(1)"},
		{"inf", Infimum(), "#inf"},
		{"sup", Supremum(), "#sup"},
		{"nested", Function("move", Function("robot", Number(1)), Tuple(Number(0), Number(-1)), Number(3)), "move(robot(1),(0,-1),3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.String())
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"planning(robot(1))",
		"move(robot(1),(0,-1),3)",
		"init(object(node,1),value(at,(1,1)))",
		`label("a \"quoted\" value")`,
		"t((1,),(),#inf,#sup)",
		"-blocked(2)",
		"a",
		"x'(_y)",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			f, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, in, f.String())
			assert.Equal(t, in+".", f.Statement())
		})
	}
}

func TestParseAcceptsStatementSyntax(t *testing.T) {
	f, err := Parse("  process( order( 5 ) ) . ")
	require.NoError(t, err)
	assert.Equal(t, "process(order(5))", f.String())
	assert.Equal(t, "process", f.Name())
	assert.Equal(t, 1, f.Arity())

	order, ok := f.Arg(0)
	require.True(t, ok)
	assert.Equal(t, "order", order.Name())
	n, ok := order.Args()[0].Int()
	require.True(t, ok)
	assert.Equal(t, 5, n)
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"42",
		`"str"`,
		"(1,2)",
		"f(1",
		"f(1,,2)",
		"f(1) g",
		`f("open)`,
		"#foo",
		"F(1)",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestParseModel(t *testing.T) {
	got, err := ParseModel(`position(robot(1),(1,1),0) label("two words") init(a,b)`)
	require.NoError(t, err)

	want := []Fact{
		New("position", Function("robot", Number(1)), Tuple(Number(1), Number(1)), Number(0)),
		New("label", String("two words")),
		New("init", Function("a"), Function("b")),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseModel() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseModelEmpty(t *testing.T) {
	got, err := ParseModel("   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFactIsImmutable(t *testing.T) {
	args := []Term{Number(1)}
	f := New("p", args...)
	args[0] = Number(2)

	got := f.Args()
	got[0] = Number(3)

	assert.Equal(t, "p(1)", f.String())
}

func TestFromTermRejectsNonAtoms(t *testing.T) {
	_, ok := FromTerm(Tuple(Number(1)))
	assert.False(t, ok)
	_, ok = FromTerm(Number(1))
	assert.False(t, ok)
	_, ok = FromTerm(Function("p"))
	assert.True(t, ok)
}
