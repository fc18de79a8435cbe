// Package index builds and caches the in-memory per-project document
// corpus: parsed sections, line boundaries, and the ubiquitous-keyword
// set used to suppress false "distinctive match" bonuses.
package index

import (
	"regexp"
	"strings"
	"sync"
)

// Section is one heading-delimited region of a document. It belongs to
// exactly one document; sections within a document have non-overlapping
// line ranges. Immutable once indexed.
type Section struct {
	ID        string
	Title     string
	Content   string // full text: heading + body
	FilePath  string
	StartLine int // 1-indexed
	EndLine   int // 1-indexed, inclusive
	Level     int // 1-6
}

// Body returns the section content with the heading line stripped, used
// for length-normalized body scoring.
func (s Section) Body() string {
	idx := strings.IndexByte(s.Content, '\n')
	if idx < 0 {
		return ""
	}
	return s.Content[idx+1:]
}

// DocumentIndex is the per-project aggregate corpus.
type DocumentIndex struct {
	Files             []string
	Lines             []string
	Sections          []Section
	FileBoundaries    map[string][2]int // [start,end) 0-indexed into Lines
	UbiquitousKeywords map[string]struct{}
}

// minSectionsForUbiquitous guards the ubiquitous-keyword computation on
// very small corpora, where a term in 8 of 10 sections would otherwise be
// (pathologically) marked ubiquitous. The set stays empty below this many
// sections.
const minSectionsForUbiquitous = 20

// ubiquitousThreshold is the title-appearance fraction above which a term
// is considered ubiquitous and excluded from the distinctive-match bonus.
const ubiquitousThreshold = 0.70

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// Build parses a set of (filePath, content) documents into a DocumentIndex.
// Headings (markdown `#`..`######`) delimit sections; text before the
// first heading in a file is attached to an implicit level-1 section
// titled after the file itself.
func Build(docs map[string]string, order []string) *DocumentIndex {
	idx := &DocumentIndex{
		FileBoundaries: make(map[string][2]int),
	}

	for _, path := range order {
		content, ok := docs[path]
		if !ok {
			continue
		}
		idx.Files = append(idx.Files, path)
		startLineIdx := len(idx.Lines)
		lines := strings.Split(content, "\n")
		sections := parseSections(path, lines, startLineIdx)
		idx.Sections = append(idx.Sections, sections...)
		idx.Lines = append(idx.Lines, lines...)
		idx.FileBoundaries[path] = [2]int{startLineIdx, len(idx.Lines)}
	}

	idx.UbiquitousKeywords = computeUbiquitousKeywords(idx.Sections)
	return idx
}

func parseSections(path string, lines []string, fileStartIdx int) []Section {
	var sections []Section

	type open struct {
		title     string
		level     int
		startLine int // 1-indexed global
		bodyStart int // 0-indexed into lines
	}
	var current *open
	var bodyLines []string
	preambleStart := -1

	flush := func(endLineGlobal int, bodyEnd int) {
		if current == nil {
			return
		}
		heading := strings.Repeat("#", current.level) + " " + current.title
		body := strings.Join(bodyLines, "\n")
		full := heading
		if body != "" {
			full = heading + "\n" + body
		}
		sections = append(sections, Section{
			ID:        sectionID(path, current.startLine),
			Title:     current.title,
			Content:   full,
			FilePath:  path,
			StartLine: current.startLine,
			EndLine:   endLineGlobal,
			Level:     current.level,
		})
		current = nil
		bodyLines = nil
	}

	var preambleLines []string
	for i, line := range lines {
		globalLine := fileStartIdx + i + 1 // 1-indexed
		if m := headingRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				flush(globalLine-1, 0)
			} else if preambleStart >= 0 && len(preambleLines) > 0 {
				sections = append(sections, Section{
					ID:        sectionID(path, preambleStart),
					Title:     path,
					Content:   strings.Join(preambleLines, "\n"),
					FilePath:  path,
					StartLine: preambleStart,
					EndLine:   globalLine - 1,
					Level:     1,
				})
				preambleLines = nil
				preambleStart = -1
			}
			level := len(m[1])
			title := strings.TrimSpace(m[2])
			current = &open{title: title, level: level, startLine: globalLine}
			continue
		}
		if current != nil {
			bodyLines = append(bodyLines, line)
		} else {
			if preambleStart < 0 {
				preambleStart = globalLine
			}
			preambleLines = append(preambleLines, line)
		}
	}

	lastLine := fileStartIdx + len(lines)
	if current != nil {
		flush(lastLine, 0)
	} else if preambleStart >= 0 && len(preambleLines) > 0 {
		sections = append(sections, Section{
			ID:        sectionID(path, preambleStart),
			Title:     path,
			Content:   strings.Join(preambleLines, "\n"),
			FilePath:  path,
			StartLine: preambleStart,
			EndLine:   lastLine,
			Level:     1,
		})
	}

	return sections
}

func sectionID(path string, startLine int) string {
	return path + "#L" + itoa(startLine)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func computeUbiquitousKeywords(sections []Section) map[string]struct{} {
	out := make(map[string]struct{})
	if len(sections) < minSectionsForUbiquitous {
		return out
	}

	wordRe := regexp.MustCompile(`[^\w]+`)
	counts := make(map[string]int)
	for _, s := range sections {
		seen := make(map[string]struct{})
		for _, w := range wordRe.Split(strings.ToLower(s.Title), -1) {
			if w == "" {
				continue
			}
			seen[w] = struct{}{}
		}
		for w := range seen {
			counts[w]++
		}
	}

	threshold := float64(len(sections)) * ubiquitousThreshold
	for w, c := range counts {
		if float64(c) > threshold {
			out[w] = struct{}{}
		}
	}
	return out
}

// Cache is an in-process, per-project cache of DocumentIndex snapshots.
// Any upload/sync/delete mutation invalidates the cached entry for that
// project; readers mid-invalidation continue against the stale snapshot
// until the next reader triggers a reload.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*DocumentIndex
}

// NewCache creates an empty index cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*DocumentIndex)}
}

// Get returns the cached index for a project, or nil if absent.
func (c *Cache) Get(projectID string) *DocumentIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[projectID]
}

// Set stores (or replaces) the cached index for a project.
func (c *Cache) Set(projectID string, idx *DocumentIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[projectID] = idx
}

// Invalidate drops the cached index for a project so the next Get-miss
// triggers a reload by the caller.
func (c *Cache) Invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, projectID)
}
