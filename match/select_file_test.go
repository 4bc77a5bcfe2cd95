package match

import "testing"

func TestSelectFile(t *testing.T) {
	tests := []struct {
		name    string
		files   []FileEntry
		season  int
		episode int
		want    string
		wantOK  bool
	}{
		{
			name: "episode pattern beats size ordering",
			files: []FileEntry{
				{Name: "Show.S01E01.mkv", Size: 100},
				{Name: "Show.S01E02.mkv", Size: 900},
			},
			season:  1,
			episode: 2,
			want:    "Show.S01E02.mkv",
			wantOK:  true,
		},
		{
			name: "no season falls back to largest",
			files: []FileEntry{
				{Name: "a.mkv", Size: 100},
				{Name: "b.mkv", Size: 900},
				{Name: "c.mkv", Size: 300},
			},
			want:   "b.mkv",
			wantOK: true,
		},
		{
			name: "x notation pattern",
			files: []FileEntry{
				{Name: "show 1x02 final.mp4", Size: 10},
				{Name: "show 1x03 final.mp4", Size: 10},
			},
			season:  1,
			episode: 3,
			want:    "show 1x03 final.mp4",
			wantOK:  true,
		},
		{
			name: "dotted pattern",
			files: []FileEntry{
				{Name: "Show.S02.E05.mkv", Size: 10},
			},
			season:  2,
			episode: 5,
			want:    "Show.S02.E05.mkv",
			wantOK:  true,
		},
		{
			name: "no match falls back to largest",
			files: []FileEntry{
				{Name: "Show.S01E01.mkv", Size: 100},
				{Name: "Show.S01E02.mkv", Size: 900},
			},
			season:  1,
			episode: 9,
			want:    "Show.S01E02.mkv",
			wantOK:  true,
		},
		{
			name:   "empty listing",
			files:  nil,
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectFile(tt.files, tt.season, tt.episode)
			if ok != tt.wantOK {
				t.Fatalf("SelectFile() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Name != tt.want {
				t.Errorf("SelectFile() = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestSelectVideoFile(t *testing.T) {
	tests := []struct {
		name    string
		files   []FileEntry
		season  int
		episode int
		want    string
	}{
		{
			name: "largest video preferred over larger non-video",
			files: []FileEntry{
				{Name: "sample.nfo", Size: 9000},
				{Name: "movie.mkv", Size: 800},
				{Name: "movie.srt", Size: 10},
			},
			want: "movie.mkv",
		},
		{
			name: "no video at all takes largest overall",
			files: []FileEntry{
				{Name: "disc.iso", Size: 9000},
				{Name: "readme.txt", Size: 10},
			},
			want: "disc.iso",
		},
		{
			name: "episode match wins over video fallback",
			files: []FileEntry{
				{Name: "Show.S03E04.mkv", Size: 100},
				{Name: "Show.S03E05.mkv", Size: 900},
			},
			season:  3,
			episode: 4,
			want:    "Show.S03E04.mkv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectVideoFile(tt.files, tt.season, tt.episode)
			if !ok {
				t.Fatal("SelectVideoFile() ok = false, want true")
			}
			if got.Name != tt.want {
				t.Errorf("SelectVideoFile() = %q, want %q", got.Name, tt.want)
			}
		})
	}
}
