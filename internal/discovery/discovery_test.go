package discovery

import (
	"strings"
	"testing"

	"github.com/linnington/esheets-assets/internal/dom"
)

func parse(t *testing.T, s string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func TestFind(t *testing.T) {
	tests := []struct {
		name         string
		page         string
		want         Pair
		wantText     string
		wantSelector string
		wantOK       bool
	}{
		{
			name: "hidden loses to visible",
			page: `<body>
				<p style="display:none">Score: 9/10</p>
				<p>Score: 7 / 10</p>
			</body>`,
			want:     Pair{7, 10},
			wantText: "Score: 7 / 10",
			wantOK:   true,
		},
		{
			name:   "no score word",
			page:   `<body><p>1/2 of students improved</p></body>`,
			wantOK: false,
		},
		{
			name: "probe selector wins over walk",
			page: `<body>
				<p>Score: 1/2</p>
				<span id="score">4 / 5</span>
			</body>`,
			want:         Pair{4, 5},
			wantText:     "4 / 5",
			wantSelector: "#score",
			wantOK:       true,
		},
		{
			name: "probe order",
			page: `<body>
				<div class="result">2/3</div>
				<div class="score">1/3</div>
			</body>`,
			want:         Pair{1, 3},
			wantText:     "1/3",
			wantSelector: ".score",
			wantOK:       true,
		},
		{
			name: "hidden probe match is skipped",
			page: `<body>
				<div data-esheet-score hidden>5/5</div>
				<div id="score">Score 2 / 5</div>
			</body>`,
			want:         Pair{2, 5},
			wantText:     "Score 2 / 5",
			wantSelector: "#score",
			wantOK:       true,
		},
		{
			name: "unparseable probe falls through to walk",
			page: `<body>
				<div id="score">pending</div>
				<p>Your score: 6/8</p>
			</body>`,
			want:     Pair{6, 8},
			wantText: "Your score: 6/8",
			wantOK:   true,
		},
		{
			name: "interactive candidate is penalized",
			page: `<body>
				<div>Score: 3/4 <button>Check</button></div>
				<p>Your score so far is 2/4, keep going with the questions</p>
			</body>`,
			want:     Pair{2, 4},
			wantText: "Your score so far is 2/4, keep going with the questions",
			wantOK:   true,
		},
		{
			name: "shorter text wins",
			page: `<body>
				<p>This worksheet records your score as you go: 1/9</p>
				<p>Score 5/9</p>
			</body>`,
			want:     Pair{5, 9},
			wantText: "Score 5/9",
			wantOK:   true,
		},
		{
			name:   "long text is ignored",
			page:   `<body><p>Score ` + strings.Repeat("word ", 20) + `3/4</p></body>`,
			wantOK: false,
		},
		{
			name:   "only score is inside a hidden child",
			page:   `<body><main><p style="display:none">Score: 9/10</p></main></body>`,
			wantOK: false,
		},
		{
			name:     "hidden child text does not reach the wrapper",
			page:     `<body><div>Score: <span hidden>9/10</span><span>6/10</span></div></body>`,
			want:     Pair{6, 10},
			wantText: "Score: 6/10",
			wantOK:   true,
		},
		{
			name:     "multibyte label at the length limit",
			page:     `<body><p>` + accentedLabel(39) + `</p></body>`,
			want:     Pair{7, 10},
			wantText: accentedLabel(39),
			wantOK:   true,
		},
		{
			name:   "multibyte label past the length limit",
			page:   `<body><p>` + accentedLabel(41) + `</p></body>`,
			wantOK: false,
		},
		{
			name:   "denominator out of bounds",
			page:   `<body><p>Score 3/1000</p></body>`,
			wantOK: false,
		},
		{
			name:   "empty page",
			page:   ``,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewFinder().Find(parse(t, tt.page))
			if ok != tt.wantOK {
				t.Fatalf("Find() ok = %v, want %v (got %+v)", ok, tt.wantOK, got)
			}
			if !ok {
				return
			}
			if got.Pair != tt.want {
				t.Errorf("Find() pair = %v, want %v", got.Pair, tt.want)
			}
			if got.Text != tt.wantText {
				t.Errorf("Find() text = %q, want %q", got.Text, tt.wantText)
			}
			if got.Selector != tt.wantSelector {
				t.Errorf("Find() selector = %q, want %q", got.Selector, tt.wantSelector)
			}
		})
	}
}

func TestFindPrefersInnermostOfIdenticalText(t *testing.T) {
	doc := parse(t, `<body><main><p id="label">Score: 7 / 10</p></main></body>`)
	got, ok := NewFinder().Find(doc)
	if !ok {
		t.Fatal("Find() found nothing")
	}
	// Rewriting a wrapper would drop #label; rewriting the label keeps it.
	if err := doc.SetText(got.Element, "Score: 8 / 10"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	label, _ := doc.Query("#label")
	if len(label) != 1 || label[0].Text() != "Score: 8 / 10" {
		t.Errorf("Find() chose a wrapper of #label")
	}
}

func TestFindTiesKeepDocumentOrder(t *testing.T) {
	got, ok := NewFinder().Find(parse(t, `<body><p>Score 1/4</p><p>Score 3/4</p></body>`))
	if !ok || got.Pair != (Pair{1, 4}) {
		t.Errorf("Find() = %+v, %v; want the first 1/4", got, ok)
	}
}

// accentedLabel returns a score label of 41+n characters whose byte length
// is well past its character count.
func accentedLabel(n int) string {
	return "Ton score à l'épreuve de révision : " + strings.Repeat("é", n) + " 7/10"
}

func TestDefaultRankCountsCharacters(t *testing.T) {
	f := NewFinder()
	if got := f.DefaultRank(Candidate{Text: "Note é : 3/4"}); got != 12 {
		t.Errorf("DefaultRank() = %d, want 12", got)
	}
	if got := f.DefaultRank(Candidate{Text: "Score 3/4", Interactive: true}); got != 9+DefaultInteractivePenalty {
		t.Errorf("DefaultRank(interactive) = %d, want %d", got, 9+DefaultInteractivePenalty)
	}
}

func TestFindCustomRank(t *testing.T) {
	page := parse(t, `<body>
		<div>Score: 3/4 <button>Check</button></div>
		<p>Your score so far is 2/4, keep going with the questions</p>
	</body>`)

	f := NewFinder()
	f.Rank = func(c Candidate) int {
		if c.Interactive {
			return 0
		}
		return 1
	}
	got, ok := f.Find(page)
	if !ok || got.Pair != (Pair{3, 4}) {
		t.Errorf("Find() = %+v, %v; want the interactive 3/4", got, ok)
	}
}

func TestFindElementBound(t *testing.T) {
	var b strings.Builder
	b.WriteString("<body>")
	for i := 0; i < 50; i++ {
		b.WriteString("<div>filler</div>")
	}
	b.WriteString("<p>Score 2/3</p></body>")
	page := parse(t, b.String())

	f := NewFinder()
	f.MaxElements = 10
	if _, ok := f.Find(page); ok {
		t.Error("Find() looked past the element bound")
	}

	f.MaxElements = 0
	if _, ok := f.Find(page); !ok {
		t.Error("Find() with the default bound found nothing")
	}
}

func TestWatch(t *testing.T) {
	doc := parse(t, `<body><div id="score">Score: 1 / 4</div></body>`)
	f := NewFinder()

	c, ok := f.Find(doc)
	if !ok {
		t.Fatal("Find() found nothing")
	}

	var got []Pair
	sub, err := f.Watch(doc, c, func(p Pair) { got = append(got, p) })
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	doc.SetText(c.Element, "Score: 3 / 4")
	doc.SetText(c.Element, "calculating")
	doc.SetText(c.Element, "Score: 4 / 4")
	sub.Unsubscribe()
	doc.SetText(c.Element, "Score: 0 / 4")

	want := []Pair{{3, 4}, {4, 4}}
	if len(got) != len(want) {
		t.Fatalf("Watch() reported %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report %d = %v, want %v", i, got[i], want[i])
		}
	}
}
