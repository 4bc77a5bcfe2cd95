package match

import (
	"fmt"
	"strings"
)

// FileEntry is one file of a torrent listing, as needed for selection.
type FileEntry struct {
	Name string
	Size int64
}

var videoExtensions = []string{".mkv", ".mp4", ".avi", ".mov", ".wmv", ".m4v"}

// episodePatterns builds the ordered literal patterns a filename is tested
// against: S01E01, 1x01, S1E01, S01.E01.
func episodePatterns(season, episode int) []string {
	return []string{
		fmt.Sprintf("S%02dE%02d", season, episode),
		fmt.Sprintf("%dx%02d", season, episode),
		fmt.Sprintf("S%dE%02d", season, episode),
		fmt.Sprintf("S%02d.E%02d", season, episode),
	}
}

func matchEpisodeFile(files []FileEntry, season, episode int) (FileEntry, bool) {
	patterns := episodePatterns(season, episode)
	// first filename matching any pattern wins, scanned in file order
	for _, f := range files {
		upper := strings.ToUpper(f.Name)
		for _, p := range patterns {
			if strings.Contains(upper, strings.ToUpper(p)) {
				return f, true
			}
		}
	}
	return FileEntry{}, false
}

func largest(files []FileEntry) FileEntry {
	best := files[0]
	for _, f := range files[1:] {
		if f.Size > best.Size {
			best = f
		}
	}
	return best
}

// SelectFile picks the file to play from a torrent listing. With a season and
// episode it tries the episode patterns in file order; otherwise, or when no
// filename matches, it falls back to the single largest file.
func SelectFile(files []FileEntry, season, episode int) (FileEntry, bool) {
	if len(files) == 0 {
		return FileEntry{}, false
	}
	if season > 0 && episode > 0 {
		if f, ok := matchEpisodeFile(files, season, episode); ok {
			return f, true
		}
	}
	return largest(files), true
}

// IsVideoFile reports whether the filename carries a known video extension.
func IsVideoFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// SelectVideoFile is SelectFile with the local-client fallback chain: episode
// pattern match, else largest file with a video extension, else largest file
// overall.
func SelectVideoFile(files []FileEntry, season, episode int) (FileEntry, bool) {
	if len(files) == 0 {
		return FileEntry{}, false
	}
	if season > 0 && episode > 0 {
		if f, ok := matchEpisodeFile(files, season, episode); ok {
			return f, true
		}
	}
	var videos []FileEntry
	for _, f := range files {
		if IsVideoFile(f.Name) {
			videos = append(videos, f)
		}
	}
	if len(videos) > 0 {
		return largest(videos), true
	}
	return largest(files), true
}
