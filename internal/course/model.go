package course

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/tanq16/coursekeep/internal/downloads"
)

type Course struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Org            string   `yaml:"org" json:"org"`
	Number         string   `yaml:"number" json:"number"`
	Start          string   `yaml:"start" json:"start,omitempty"`
	CourseImageURL string   `yaml:"course_image_url" json:"courseImageUrl,omitempty"`
	Sections       []*Block `yaml:"sections" json:"-"`
}

// Block is one section of the course outline.
type Block struct {
	ID          string   `yaml:"id" json:"id"`
	DisplayName string   `yaml:"display_name" json:"displayName"`
	Graded      bool     `yaml:"graded" json:"graded"`
	Format      string   `yaml:"format" json:"format,omitempty"`
	Videos      []*Video `yaml:"videos" json:"-"`
}

type Video struct {
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	URL      string `yaml:"url" json:"url"`
	FileName string `yaml:"file" json:"file"`
	Size     int64  `yaml:"size" json:"size,omitempty"`

	state downloads.State
}

func (v *Video) DownloadState() downloads.State {
	return v.state
}

// SetState must only be called from the event loop goroutine.
func (v *Video) SetState(s downloads.State) {
	v.state = s
}

func (v *Video) OutputPath(root string, c *Course, b *Block) string {
	return filepath.Join(BlockDir(root, c, b), v.FileName)
}

// BlockDir is where the videos of one section are stored.
func BlockDir(root string, c *Course, b *Block) string {
	return filepath.Join(root, safeName(c.ID), safeName(b.ID))
}

func (c *Course) Block(id string) (*Block, bool) {
	for _, b := range c.Sections {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

func (c *Course) Title() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Detail is the header subtitle, e.g. "edX | DemoX | Starts 2014-02-05".
func (c *Course) Detail() string {
	var parts []string
	if c.Org != "" {
		parts = append(parts, c.Org)
	}
	if c.Number != "" {
		parts = append(parts, c.Number)
	}
	if c.Start != "" {
		parts = append(parts, "Starts "+c.Start)
	}
	return strings.Join(parts, " | ")
}

// CoverURL resolves the course image against the API host. Absolute image
// URLs are returned unchanged.
func (c *Course) CoverURL(apiHost string) string {
	if c.CourseImageURL == "" {
		return ""
	}
	ref, err := url.Parse(c.CourseImageURL)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(apiHost)
	if err != nil || apiHost == "" {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func (b *Block) VideoByID(id string) (*Video, bool) {
	for _, v := range b.Videos {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

func defaultFileName(v *Video) string {
	if u, err := url.Parse(v.URL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" && path.Ext(base) != "" {
			return safeName(base)
		}
	}
	return fmt.Sprintf("%s.mp4", safeName(v.ID))
}

func safeName(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return replacer.Replace(s)
}
