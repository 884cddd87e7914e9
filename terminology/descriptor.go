package terminology

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Keys of a segmentation descriptor document (the dcmqi segment metadata format).
const (
	segmentAttributesKey = "segmentAttributes"

	categorySequenceKey       = "SegmentedPropertyCategoryCodeSequence"
	typeSequenceKey           = "SegmentedPropertyTypeCodeSequence"
	typeModifierSequenceKey   = "SegmentedPropertyTypeModifierCodeSequence"
	regionSequenceKey         = "AnatomicRegionSequence"
	regionModifierSequenceKey = "AnatomicRegionModifierSequence"
)

// segment holds the codes referenced by one segment of a descriptor.
type segment struct {
	path string

	category, typ, typeModifier *CodeIdentifier
	region, regionModifier      *CodeIdentifier
	color                       *Color
}

// parseSegments reads the segmentAttributes array of arrays. Segments are
// returned in document order.
func parseSegments(data []byte) ([]segment, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedDictionary, err)
	}
	if err := checkSchema(doc, FormatSegmentDescriptor); err != nil {
		return nil, err
	}
	raw, ok := doc[segmentAttributesKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedDictionary, segmentAttributesKey)
	}
	var groups [][]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("%w: %s is not an array of arrays of objects", ErrMalformedDictionary, segmentAttributesKey)
	}

	var segments []segment
	for i, group := range groups {
		for j, fields := range group {
			seg := segment{path: fmt.Sprintf("%s[%d][%d]", segmentAttributesKey, i, j)}
			targets := []struct {
				key string
				dst **CodeIdentifier
			}{
				{categorySequenceKey, &seg.category},
				{typeSequenceKey, &seg.typ},
				{typeModifierSequenceKey, &seg.typeModifier},
				{regionSequenceKey, &seg.region},
				{regionModifierSequenceKey, &seg.regionModifier},
			}
			for _, t := range targets {
				value, ok := fields[t.key]
				if !ok {
					continue
				}
				id, err := parseSequence(value, seg.path+"."+t.key)
				if err != nil {
					return nil, err
				}
				*t.dst = &id
			}
			if value, ok := fields[RecommendedColorAttribute]; ok {
				color, err := parseColor(value)
				if err != nil {
					return nil, fmt.Errorf("%w: %s.%s: %v", ErrMalformedDictionary, seg.path, RecommendedColorAttribute, err)
				}
				seg.color = &color
			}
			segments = append(segments, seg)
		}
	}
	return segments, nil
}

func parseSequence(raw json.RawMessage, path string) (CodeIdentifier, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return CodeIdentifier{}, fmt.Errorf("%w: %s is not an object", ErrMalformedDictionary, path)
	}
	id, err := parseCode(fields, path)
	if err != nil {
		return CodeIdentifier{}, err
	}
	if id.CodingSchemeDesignator == "" || id.CodeValue == "" {
		return CodeIdentifier{}, fmt.Errorf("%w: %s has empty %s or %s", ErrMalformedDictionary, path, schemeKey, valueKey)
	}
	return id, nil
}

// LoadTerminologyFromSegmentDescriptor merges the category, type and type
// modifier codes referenced by a segmentation descriptor into the named
// terminology, creating it if it is not loaded. Codes already present are
// left untouched.
func (s *Store) LoadTerminologyFromSegmentDescriptor(contextName string, data []byte) error {
	segments, err := s.descriptorSegments(contextName, data, KindTerminology)
	if err != nil {
		return err
	}
	for _, seg := range segments {
		if seg.category == nil || seg.typ == nil {
			err := fmt.Errorf("%w: %s: segment needs both %s and %s",
				ErrMalformedDictionary, seg.path, categorySequenceKey, typeSequenceKey)
			s.failDescriptor(KindTerminology, err)
			return err
		}
	}

	s.mu.Lock()
	snap := s.snap()
	root := &Node{}
	if t, ok := snap.terminologies[contextName]; ok {
		root = t.clone().root
	}
	for _, seg := range segments {
		cat := root.addChild(&Node{ID: *seg.category, ShowAnatomy: seg.region != nil})
		typ, created := addNode(cat, *seg.typ)
		if created && seg.color != nil {
			color := *seg.color
			typ.RecommendedColor = &color
		}
		if seg.typeModifier != nil {
			typ.addChild(&Node{ID: *seg.typeModifier})
		}
	}
	t := newTerminologyContext(contextName, root.Children)
	s.current.Store(snap.withTerminology(t))
	s.mu.Unlock()

	s.observer.RecordLoad(KindTerminology, true)
	s.log.Debug("merged %d segments into terminology %q", len(segments), contextName)
	return nil
}

// LoadAnatomicContextFromSegmentDescriptor merges the anatomic region and
// region modifier codes referenced by a segmentation descriptor into the
// named anatomic context, creating it if it is not loaded. Segments without
// an anatomic region are skipped.
func (s *Store) LoadAnatomicContextFromSegmentDescriptor(contextName string, data []byte) error {
	segments, err := s.descriptorSegments(contextName, data, KindAnatomic)
	if err != nil {
		return err
	}
	for _, seg := range segments {
		if seg.regionModifier != nil && seg.region == nil {
			err := fmt.Errorf("%w: %s: %s without %s",
				ErrMalformedDictionary, seg.path, regionModifierSequenceKey, regionSequenceKey)
			s.failDescriptor(KindAnatomic, err)
			return err
		}
	}

	s.mu.Lock()
	snap := s.snap()
	root := &Node{}
	if a, ok := snap.anatomics[contextName]; ok {
		root = a.clone().root
	}
	merged := 0
	for _, seg := range segments {
		if seg.region == nil {
			continue
		}
		region := root.addChild(&Node{ID: *seg.region})
		if seg.regionModifier != nil {
			region.addChild(&Node{ID: *seg.regionModifier})
		}
		merged++
	}
	a := newAnatomicContext(contextName, root.Children)
	s.current.Store(snap.withAnatomic(a))
	s.mu.Unlock()

	s.observer.RecordLoad(KindAnatomic, true)
	s.log.Debug("merged %d segments into anatomic context %q", merged, contextName)
	return nil
}

func (s *Store) descriptorSegments(contextName string, data []byte, kind Kind) ([]segment, error) {
	if strings.TrimSpace(contextName) == "" {
		err := fmt.Errorf("%w: empty %s name", ErrMalformedDictionary, kind)
		s.failDescriptor(kind, err)
		return nil, err
	}
	segments, err := parseSegments(data)
	if err != nil {
		s.failDescriptor(kind, err)
		return nil, err
	}
	return segments, nil
}

func (s *Store) failDescriptor(kind Kind, err error) {
	s.observer.RecordLoad(kind, false)
	s.log.Warn("failed to load %s from segment descriptor: %v", kind, err)
}

// addNode returns the child of parent with the given identity, adding a new
// node when none exists.
func addNode(parent *Node, id CodeIdentifier) (*Node, bool) {
	if existing, ok := parent.Child(id); ok {
		return existing, false
	}
	return parent.addChild(&Node{ID: id}), true
}
