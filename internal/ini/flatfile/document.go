package flatfile

import (
	"io"

	"gopkg.in/ini.v1"
)

// loadOptions are shared by every document so cached and direct access parse
// identically. Names are case-sensitive, only "=" separates key from value,
// and sections never inherit keys from a dotted parent section.
var loadOptions = ini.LoadOptions{
	KeyValueDelimiters:    "=",
	ChildSectionDelimiter: "\x00",
}

// Document is the parsed content of one INI file: section -> key -> text.
// Comments and ordering of the source file survive a load/save cycle.
//
// A Document is not safe for concurrent use.
type Document struct {
	file *ini.File
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{file: ini.Empty(loadOptions)}
}

func parseDocument(data []byte) (*Document, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, err
	}
	return &Document{file: f}, nil
}

// Lookup returns the text stored at section/key and whether it exists. The
// text is returned as stored; %(name)s references are not expanded.
func (d *Document) Lookup(section, key string) (string, bool) {
	sec, err := d.file.GetSection(section)
	if err != nil {
		return "", false
	}
	k, err := sec.GetKey(key)
	if err != nil {
		return "", false
	}
	return k.Value(), true
}

// Get returns the text stored at section/key, or def when it is absent.
func (d *Document) Get(section, key, def string) string {
	if v, ok := d.Lookup(section, key); ok {
		return v
	}
	return def
}

// Set stores text at section/key, creating the section if needed.
func (d *Document) Set(section, key, text string) {
	sec, err := d.file.GetSection(section)
	if err != nil {
		sec, err = d.file.NewSection(section)
		if err != nil {
			// NewSection only fails for an empty name, which maps to DEFAULT.
			sec = d.file.Section(ini.DefaultSection)
		}
	}
	if k, err := sec.GetKey(key); err == nil {
		k.SetValue(text)
		return
	}
	_, _ = sec.NewKey(key, text)
}

// Sections returns the names of all sections that hold at least one key.
func (d *Document) Sections() []string {
	var names []string
	for _, sec := range d.file.Sections() {
		if len(sec.Keys()) == 0 {
			continue
		}
		names = append(names, sec.Name())
	}
	return names
}

// Keys returns the key names of a section in file order.
func (d *Document) Keys(section string) []string {
	sec, err := d.file.GetSection(section)
	if err != nil {
		return nil
	}
	return sec.KeyStrings()
}

// Len returns the total number of keys across all sections.
func (d *Document) Len() int {
	n := 0
	for _, sec := range d.file.Sections() {
		n += len(sec.Keys())
	}
	return n
}

// WriteTo serializes the document in INI format.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return d.file.WriteTo(w)
}
