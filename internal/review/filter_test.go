package review

import "testing"

func TestReviewable(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"main.go", true},
		{"src/app.ts", true},
		{"lib/util.py", true},
		{"index.jsx", true},
		{"package-lock.json", false},
		{"frontend/package-lock.json", false},
		{"yarn.lock", false},
		{"go.sum", false},
		{"package.json", false},
		{"README.md", false},
		{"readme", false},
		{"LICENSE", false},
		{"docs/notes.txt", false},
		{"logo.png", false},
		{"demo.ipynb", false},
		{"data.csv", false},
		{"app.db", false},
		{"Makefile", false},
		{"Dockerfile", false},
		{".env", false},
		{".gitignore", false},
		{"trailing.", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Reviewable(tt.filename); got != tt.want {
				t.Errorf("Reviewable(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestFilterFiles_PreservesOrder(t *testing.T) {
	files := []*ChangedFile{
		{Filename: "b.go"},
		{Filename: "yarn.lock"},
		{Filename: "a.ts"},
		{Filename: "logo.png"},
		{Filename: "c.py"},
	}

	kept := FilterFiles(files, nil)
	want := []string{"b.go", "a.ts", "c.py"}
	if len(kept) != len(want) {
		t.Fatalf("kept %d files, want %d", len(kept), len(want))
	}
	for i, name := range want {
		if kept[i].Filename != name {
			t.Errorf("kept[%d] = %q, want %q", i, kept[i].Filename, name)
		}
	}
}

func TestFilterFiles_Empty(t *testing.T) {
	if kept := FilterFiles(nil, nil); len(kept) != 0 {
		t.Errorf("FilterFiles(nil) = %v, want empty", kept)
	}
}
