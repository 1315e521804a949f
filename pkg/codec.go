package dirhash

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// nameEncodingBase64 marks a name attribute holding the base64 of the raw name bytes.
// Names that are not valid XML text would otherwise be rewritten by the encoder.
const nameEncodingBase64 = "base64"

type xmlStore struct {
	XMLName    xml.Name      `xml:"hashes"`
	UpdateTime string        `xml:"updateTime,attr"`
	Root       *xmlDirectory `xml:"directory"`
}

type xmlDirectory struct {
	Name        *string         `xml:"name,attr,omitempty"`
	Encoding    string          `xml:"encoding,attr,omitempty"`
	Directories []*xmlDirectory `xml:"directory"`
	Files       []*xmlFile      `xml:"file"`
}

type xmlFile struct {
	Name     *string   `xml:"name,attr"`
	Encoding string    `xml:"encoding,attr,omitempty"`
	Hashes   []xmlHash `xml:"hash"`
}

type xmlHash struct {
	Algorithm string `xml:"algorithm,attr"`
	Digest    string `xml:",chardata"`
}

// EncodeStore writes the tree and its update time as an indented store document
func EncodeStore(w io.Writer, tree *HashedDirectory, updateTime time.Time) error {
	doc := xmlStore{
		UpdateTime: updateTime.UTC().Format(time.RFC3339Nano),
		Root:       toXMLDirectory(tree, nil),
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func toXMLDirectory(d *HashedDirectory, name *string) *xmlDirectory {
	xd := &xmlDirectory{}
	if name != nil {
		n, encoding := encodeName(*name)
		xd.Name, xd.Encoding = &n, encoding
	}

	d.ForEachDirectory(func(childName string, child *HashedDirectory) bool {
		n := childName
		xd.Directories = append(xd.Directories, toXMLDirectory(child, &n))
		return true
	})

	d.ForEachFile(func(fileName string, hf HashedFile) bool {
		n, encoding := encodeName(fileName)
		xd.Files = append(xd.Files, &xmlFile{
			Name:     &n,
			Encoding: encoding,
			Hashes:   []xmlHash{
				{Algorithm: HashTypeName(HashTypeSHA1), Digest: hf.SHA1Hex()},
				{Algorithm: HashTypeName(HashTypeSHA256), Digest: hf.SHA256Hex()},
			},
		})
		return true
	})

	return xd
}

// DecodeStore parses a store document, validating names, algorithms and digests
func DecodeStore(r io.Reader) (*HashedDirectory, time.Time, error) {
	var doc xmlStore
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("malformed document: %w", err)
	}

	if doc.UpdateTime == "" {
		return nil, time.Time{}, errors.New("missing updateTime attribute")
	}
	updateTime, err := time.Parse(time.RFC3339Nano, doc.UpdateTime)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid updateTime: %w", err)
	}

	tree := NewHashedDirectory()
	if doc.Root != nil {
		if doc.Root.Name != nil {
			return nil, time.Time{}, errors.New("root directory must not carry a name")
		}
		if err := fromXMLDirectory(tree, doc.Root, ""); err != nil {
			return nil, time.Time{}, err
		}
	}

	return tree, updateTime.UTC(), nil
}

func fromXMLDirectory(d *HashedDirectory, xd *xmlDirectory, relPath string) error {
	for _, xchild := range xd.Directories {
		if xchild.Name == nil || *xchild.Name == "" {
			return fmt.Errorf("directory without a name in %q", relPath)
		}
		name, err := decodeName(*xchild.Name, xchild.Encoding)
		if err != nil {
			return fmt.Errorf("directory %q in %q: %w", *xchild.Name, relPath, err)
		}
		if _, exists := d.Directory(name); exists {
			return fmt.Errorf("duplicate directory %q in %q", name, relPath)
		}

		child := NewHashedDirectory()
		if err := fromXMLDirectory(child, xchild, joinRel(relPath, name)); err != nil {
			return err
		}
		d.SetDirectory(name, child)
	}

	for _, xf := range xd.Files {
		if xf.Name == nil || *xf.Name == "" {
			return fmt.Errorf("file without a name in %q", relPath)
		}
		name, err := decodeName(*xf.Name, xf.Encoding)
		if err != nil {
			return fmt.Errorf("file %q in %q: %w", *xf.Name, relPath, err)
		}
		if _, exists := d.File(name); exists {
			return fmt.Errorf("duplicate file %q in %q", name, relPath)
		}

		hf, err := fromXMLHashes(xf.Hashes)
		if err != nil {
			return fmt.Errorf("file %q: %w", joinRel(relPath, name), err)
		}
		d.SetFile(name, hf)
	}

	return nil
}

func fromXMLHashes(hashes []xmlHash) (HashedFile, error) {
	var hf HashedFile
	seen := make(map[uint16]bool, 2)

	for _, h := range hashes {
		hashType, ok := HashTypeFromName(h.Algorithm)
		if !ok {
			return HashedFile{}, fmt.Errorf("unknown hash algorithm %q", h.Algorithm)
		}
		if seen[hashType] {
			return HashedFile{}, fmt.Errorf("duplicate %s hash", HashTypeName(hashType))
		}
		seen[hashType] = true

		if err := decodeDigest(hf.digestSlot(hashType), strings.TrimSpace(h.Digest)); err != nil {
			return HashedFile{}, fmt.Errorf("%s: %w", HashTypeName(hashType), err)
		}
	}

	for _, hashType := range []uint16{HashTypeSHA1, HashTypeSHA256} {
		if !seen[hashType] {
			return HashedFile{}, fmt.Errorf("missing %s hash", HashTypeName(hashType))
		}
	}
	return hf, nil
}

// encodeName returns the attribute text for name and the encoding it needs, if any
func encodeName(name string) (string, string) {
	if isXMLText(name) {
		return name, ""
	}
	return base64.StdEncoding.EncodeToString([]byte(name)), nameEncodingBase64
}

func decodeName(text, encoding string) (string, error) {
	switch encoding {
	case "":
		return text, nil
	case nameEncodingBase64:
		raw, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return "", fmt.Errorf("invalid base64 name: %w", err)
		}
		if len(raw) == 0 {
			return "", errors.New("empty name")
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("unknown name encoding %q", encoding)
	}
}

// isXMLText reports whether s survives an attribute round trip unchanged: valid UTF-8
// made only of XML characters. Tab, CR and LF are excluded since parsers may normalize them.
func isXMLText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= utf8.MaxRune:
		default:
			return false
		}
	}
	return true
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
