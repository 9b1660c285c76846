// Package document loads and saves timetable (.trn) files as element trees
// and locates the train record inside them.
//
// Comments, processing instructions and whitespace are carried through
// unchanged; only attributes touched by a mutation differ after Save.
package document

import (
	"os"

	"github.com/beevik/etree"

	"zsw/internal/failure"
)

// Element names used in timetable files.
const (
	TagTrain    = "Zug"
	TagConsist  = "FahrzeugVarianten"
	TagEntry    = "FahrplanEintrag"
	TagVehicle  = "Datei"
	TagInfo     = "FahrzeugInfo"
	AttrAccel   = "APBeschl"
	AttrArrival = "Ank"
	AttrDepart  = "Abf"
	AttrFile    = "Dateiname"
)

// Parse reads a document from raw bytes.
func Parse(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, failure.From(failure.ParseError, "document", err)
	}
	if doc.Root() == nil {
		return nil, failure.Newf(failure.ParseError, "document", "no root element")
	}
	return doc, nil
}

// Load reads and parses the file at path.
func Load(path string) (*etree.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.From(failure.IO, path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, failure.Wrapf(err, "parsing %s", path)
	}
	return doc, nil
}

// Bytes serializes doc.
func Bytes(doc *etree.Document) ([]byte, error) {
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, failure.From(failure.IO, "document", err)
	}
	return data, nil
}

// Save serializes doc and replaces the file at path, keeping its mode.
func Save(doc *etree.Document, path string) error {
	data, err := Bytes(doc)
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return failure.From(failure.IO, path, err)
	}
	return nil
}

// Train returns the Zug element: the root itself or its first Zug child.
func Train(doc *etree.Document) (*etree.Element, error) {
	root := doc.Root()
	if root == nil {
		return nil, failure.New(failure.MissingTag, TagTrain)
	}
	if root.Tag == TagTrain {
		return root, nil
	}
	if zug := root.SelectElement(TagTrain); zug != nil {
		return zug, nil
	}
	return nil, failure.New(failure.MissingTag, TagTrain)
}

// Attr returns the value of key on el or a MissingAttribute failure.
func Attr(el *etree.Element, key string) (*etree.Attr, error) {
	a := el.SelectAttr(key)
	if a == nil {
		return nil, failure.New(failure.MissingAttribute, key)
	}
	return a, nil
}
