// Package consist classifies a train's vehicle composition.
//
// A FahrzeugVarianten element holds a closed vocabulary of children:
//
//	Datei              single vehicle reference (Dateiname attribute)
//	FahrzeugInfo       wrapper holding one Datei
//	FahrzeugVarianten  nested variant group, same rules
//
// Any other child element is a structural failure, never skipped.
package consist

import (
	"strings"

	"github.com/beevik/etree"

	"zsw/internal/document"
	"zsw/internal/failure"
)

// LocomotiveMarker is the substring of a vehicle file name that marks a
// locomotive. Matching is case-sensitive.
const LocomotiveMarker = "lok"

// Member is one child of a consist group.
type Member interface {
	member()
}

// VehicleRef is a Datei element.
type VehicleRef struct {
	File string
}

// VehicleInfo is a FahrzeugInfo element wrapping its vehicle.
type VehicleInfo struct {
	Vehicle VehicleRef
}

// Group is a FahrzeugVarianten element. Its members are decoded lazily
// while walking so that a locomotive found early ends the walk.
type Group struct {
	el *etree.Element
}

// Unrecognized is a child element outside the vocabulary.
type Unrecognized struct {
	Name string
}

func (VehicleRef) member()   {}
func (VehicleInfo) member()  {}
func (Group) member()        {}
func (Unrecognized) member() {}

// IsLocomotive reports whether the referenced vehicle is a locomotive.
func (v VehicleRef) IsLocomotive() bool {
	return strings.Contains(v.File, LocomotiveMarker)
}

// NewGroup wraps a FahrzeugVarianten element.
func NewGroup(el *etree.Element) Group {
	return Group{el: el}
}

// decode maps one child element to its Member variant.
func decode(el *etree.Element) (Member, error) {
	switch el.Tag {
	case document.TagVehicle:
		return decodeVehicle(el)
	case document.TagInfo:
		v := el.SelectElement(document.TagVehicle)
		if v == nil {
			return nil, failure.Wrap(failure.New(failure.MissingChild, document.TagVehicle), "reading "+document.TagInfo)
		}
		ref, err := decodeVehicle(v)
		if err != nil {
			return nil, failure.Wrap(err, "reading "+document.TagInfo)
		}
		return VehicleInfo{Vehicle: ref}, nil
	case document.TagConsist:
		return Group{el: el}, nil
	default:
		return Unrecognized{Name: el.Tag}, nil
	}
}

func decodeVehicle(el *etree.Element) (VehicleRef, error) {
	a, err := document.Attr(el, document.AttrFile)
	if err != nil {
		return VehicleRef{}, err
	}
	return VehicleRef{File: a.Value}, nil
}

// HasLocomotive walks the group's children in document order, descending
// into nested groups, and stops at the first locomotive.
func (g Group) HasLocomotive() (bool, error) {
	for _, child := range g.el.ChildElements() {
		m, err := decode(child)
		if err != nil {
			return false, err
		}
		switch m := m.(type) {
		case VehicleRef:
			if m.IsLocomotive() {
				return true, nil
			}
		case VehicleInfo:
			if m.Vehicle.IsLocomotive() {
				return true, nil
			}
		case Group:
			found, err := m.HasLocomotive()
			if err != nil {
				return false, failure.Wrap(err, "inspecting nested "+document.TagConsist)
			}
			if found {
				return true, nil
			}
		case Unrecognized:
			return false, failure.New(failure.UnrecognizedVariant, m.Name)
		}
	}
	return false, nil
}

// HasLocomotive classifies the FahrzeugVarianten element el.
func HasLocomotive(el *etree.Element) (bool, error) {
	return NewGroup(el).HasLocomotive()
}
