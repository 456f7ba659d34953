package graph

import "testing"

func buildPair(t *testing.T, image string, reverseArgs bool) *Graph {
	t.Helper()
	b := New("pair", "description is not hashed")
	src := b.Param("source", "String", "t")
	prod := producer()
	prod.Image = image

	args := Args{"source": src, "limit": 5}
	if reverseArgs {
		args = Args{"limit": 5, "source": src}
	}
	p := b.Add("produce", prod, args)
	b.Add("consume", consumer(), Args{"path": p.Output("path"), "args": List{Lit("--run"), RunID}})

	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

func TestHash_Stable(t *testing.T) {
	h1, err := buildPair(t, "img:1", false).Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := buildPair(t, "img:1", true).Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("equal graphs hashed differently: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected hex sha256, got %q", h1)
	}
}

func TestHash_ChangesWithImage(t *testing.T) {
	h1, _ := buildPair(t, "img:1", false).Hash()
	h2, _ := buildPair(t, "img:2", false).Hash()
	if h1 == h2 {
		t.Error("image change did not change the hash")
	}
}

func TestRender(t *testing.T) {
	r := canonicalResolver{}
	b := New("render", "")
	p := b.Add("produce", producer(), Args{"source": "t"})

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"string literal", Lit("gs://bucket"), "gs://bucket"},
		{"number literal", Lit(0.7), "0.7"},
		{"bool literal", Lit(true), "true"},
		{"param", b.Param("region", "String", "us-central1"), "{{param:region}}"},
		{"output", p.Output("path"), "{{produce.path}}"},
		{"path", Path("gs://bucket", RunID, "data"), "gs://bucket/{{run_id}}/data"},
		{"list", List{Lit("--epochs"), Lit(3), p.Output("rows")}, `["--epochs",3,"{{produce.rows}}"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.v, r)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
