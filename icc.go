// seehuhn.de/go/colorspace - RGB colour spaces and pixel conversion kernels
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package colorspace

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf16"
)

// Profile is a decoded ICC profile.  Only the header fields needed to
// recognise matrix/TRC RGB profiles are interpreted; the tags are kept as
// raw binary data.
type Profile struct {
	Version         Version
	Class           ProfileClass
	ColorSpace      uint32 // data colour space signature, e.g. "RGB "
	PCS             uint32 // profile connection space signature, "XYZ " or "Lab "
	CreationDate    time.Time
	RenderingIntent uint32

	// CheckSum indicates whether the profile's embedded checksum is valid.
	// This is only meaningful for profiles read using DecodeProfile.
	CheckSum CheckSum

	TagData map[TagType][]byte
}

// Version is a version of the ICC profile format.
type Version uint32

// Some well-known versions of the ICC profile format.
const (
	Version2_1_0 Version = 0x0210_0000
	Version4_0_0 Version = 0x0400_0000
	Version4_4_0 Version = 0x0440_0000

	currentVersion = Version4_4_0
)

func (v Version) String() string {
	major := int(v >> 24)
	minor := int(v >> 20 & 0xF)
	bugfix := int(v >> 16 & 0xF)
	return fmt.Sprintf("%d.%d.%d", major, minor, bugfix)
}

// ProfileClass is the ICC profile or device class.
type ProfileClass uint32

// Profile classes which can describe an RGB space.
const (
	InputDeviceProfile   ProfileClass = 0x73636E72 // "scnr"
	DisplayDeviceProfile ProfileClass = 0x6D6E7472 // "mntr"
	ColorSpaceProfile    ProfileClass = 0x73706163 // "spac"
)

func (c ProfileClass) String() string {
	switch c {
	case InputDeviceProfile:
		return "Input Device Profile"
	case DisplayDeviceProfile:
		return "Display Device Profile"
	case ColorSpaceProfile:
		return "ColorSpace Profile"
	default:
		return fmt.Sprintf("ProfileClass(0x%08X)", uint32(c))
	}
}

// CheckSum contains information about the Profile ID field.
type CheckSum int

// Possible values of the CheckSum field.
const (
	CheckSumMissing CheckSum = iota
	CheckSumValid
	CheckSumInvalid
)

func (c CheckSum) String() string {
	switch c {
	case CheckSumValid:
		return "Valid"
	case CheckSumInvalid:
		return "Invalid"
	default:
		return "Missing"
	}
}

// TagType identifies a tag in an ICC profile.
type TagType uint32

// The tags used for matrix/TRC profiles.
const (
	ProfileDescription TagType = 0x64657363 // "desc"
	MediaWhitePoint    TagType = 0x77747074 // "wtpt"
	ChromaticAdaption  TagType = 0x63686164 // "chad"
	RedMatrixColumn    TagType = 0x7258595A // "rXYZ"
	GreenMatrixColumn  TagType = 0x6758595A // "gXYZ"
	BlueMatrixColumn   TagType = 0x6258595A // "bXYZ"
	RedTRC             TagType = 0x72545243 // "rTRC"
	GreenTRC           TagType = 0x67545243 // "gTRC"
	BlueTRC            TagType = 0x62545243 // "bTRC"
)

const (
	sigRGB  = 0x52474220 // "RGB "
	sigXYZ  = 0x58595A20 // "XYZ "
	sigAcsp = 0x61637370 // "acsp"
)

var (
	errMissingTag     = errors.New("colorspace: missing ICC tag")
	errUnexpectedType = errors.New("colorspace: unexpected ICC tag data type")
	errInvalidTagData = errors.New("colorspace: invalid ICC tag data")
	errNotMatrixRGB   = errors.New("colorspace: not a matrix/TRC RGB profile")
)

// InvalidProfileError indicates that an ICC profile contains invalid binary
// data and cannot be decoded.
type InvalidProfileError struct {
	Offset int
	Reason string
}

func invalidProfile(offset int, reason string) error {
	return &InvalidProfileError{Offset: offset, Reason: reason}
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("colorspace: invalid ICC profile (byte %d): %s", e.Offset, e.Reason)
}

// DecodeProfile decodes an ICC profile from the given data.
// The function takes over ownership of the data.
func DecodeProfile(data []byte) (*Profile, error) {
	if len(data) < 128+4 {
		return nil, invalidProfile(0, "profile is too short")
	}
	if getUint32(data, 36) != sigAcsp {
		return nil, invalidProfile(36, "missing 'acsp' signature")
	}

	numTags := getUint32(data, 128)
	maxNumTags := uint((len(data) - 128 - 4) / 12)
	if uint(numTags) > maxNumTags {
		return nil, invalidProfile(128, "too many tags")
	}

	p := &Profile{
		Version:         Version(getUint32(data, 8)),
		Class:           ProfileClass(getUint32(data, 12)),
		ColorSpace:      getUint32(data, 16),
		PCS:             getUint32(data, 20),
		CreationDate:    getDateTime(data, 24),
		RenderingIntent: getUint32(data, 64),
		TagData:         make(map[TagType][]byte),
	}

	if !isZero(data[84:100]) {
		var givenHash [16]byte
		copy(givenHash[:], data[84:100])

		// The ID is the MD5 hash of the profile with the flags, rendering
		// intent and ID header fields set to zero.
		putUint32(data, 44, 0)
		putUint32(data, 64, 0)
		clear(data[84:100])

		computedHash := md5.Sum(data)
		if bytes.Equal(computedHash[:], givenHash[:]) {
			p.CheckSum = CheckSumValid
		} else {
			p.CheckSum = CheckSumInvalid
		}
	}

	minTagOffset := 128 + 4 + int64(numTags)*12
	for i := 0; i < int(numTags); i++ {
		offset := 128 + 4 + i*12
		tagType := TagType(getUint32(data, offset))
		tagOffset := getUint32(data, offset+4)
		tagSize := getUint32(data, offset+8)
		if tagSize < 4 {
			return nil, invalidProfile(offset+8, "tag is too small")
		}

		start := int64(tagOffset)
		end := start + int64(tagSize)
		if start < minTagOffset || end > int64(len(data)) {
			return nil, invalidProfile(offset, "tag is out of bounds")
		}
		p.TagData[tagType] = data[start:end]
	}

	if p.Version == 0 {
		p.Version = currentVersion
	}
	return p, nil
}

// Encode converts the profile to binary form.
func (p *Profile) Encode() []byte {
	version := p.Version
	if version == 0 {
		version = currentVersion
	}

	// arrange tags in order of increasing length and merge duplicates
	type tagInfo struct {
		tagType   TagType
		data      []byte
		start     uint32
		duplicate bool
	}
	var tags []tagInfo
	for tagType, data := range p.TagData {
		tags = append(tags, tagInfo{tagType: tagType, data: data})
	}
	sort.Slice(tags, func(i, j int) bool {
		if len(tags[i].data) != len(tags[j].data) {
			return len(tags[i].data) < len(tags[j].data)
		}
		if c := bytes.Compare(tags[i].data, tags[j].data); c != 0 {
			return c < 0
		}
		return tags[i].tagType < tags[j].tagType
	})
	pos := 128 + 4 + len(tags)*12
	for i := range tags {
		if i > 0 && bytes.Equal(tags[i].data, tags[i-1].data) {
			tags[i].start = tags[i-1].start
			tags[i].duplicate = true
		} else {
			tags[i].start = uint32(pos)
			pos += (len(tags[i].data) + 3) &^ 3
		}
	}

	buf := make([]byte, pos)
	putUint32(buf, 0, uint32(pos))
	putUint32(buf, 8, uint32(version))
	putUint32(buf, 12, uint32(p.Class))
	putUint32(buf, 16, p.ColorSpace)
	putUint32(buf, 20, p.PCS)
	putDateTime(buf, 24, p.CreationDate)
	putUint32(buf, 36, sigAcsp)
	copy(buf[68:], d50Illuminant)

	putUint32(buf, 128, uint32(len(tags)))
	tagTable := 128 + 4
	for i, tag := range tags {
		putUint32(buf, tagTable+i*12, uint32(tag.tagType))
		putUint32(buf, tagTable+i*12+4, tag.start)
		putUint32(buf, tagTable+i*12+8, uint32(len(tag.data)))
		if !tag.duplicate {
			copy(buf[tag.start:], tag.data)
		}
	}

	if version >= Version4_0_0 {
		h := md5.Sum(buf)
		copy(buf[84:], h[:])
	}
	putUint32(buf, 64, p.RenderingIntent)

	return buf
}

// This is the value for the "PCS illuminant" header field (bytes 68 to 79).
var d50Illuminant = []byte{
	0x00, 0x00, 0xf6, 0xd6, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0xd3, 0x2d,
}

// FromICC registers the space described by a matrix/TRC RGB ICC profile.
//
// If a space with the same curves and (within the precision of the
// profile) the same matrix is already registered, that space is returned
// instead; the first registered space wins.  The space name is taken from
// the profile description if present.
func (r *Registry) FromICC(data []byte) (*Space, error) {
	p, err := DecodeProfile(data)
	if err != nil {
		return nil, err
	}
	if p.ColorSpace != sigRGB || p.PCS != sigXYZ {
		return nil, errNotMatrixRGB
	}

	var m Matrix3
	for j, tag := range []TagType{RedMatrixColumn, GreenMatrixColumn, BlueMatrixColumn} {
		col, err := p.xyzTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		m[j], m[3+j], m[6+j] = col[0], col[1], col[2]
	}

	var trc [3]TRC
	for i, tag := range []TagType{RedTRC, GreenTRC, BlueTRC} {
		data, ok := p.TagData[tag]
		if !ok {
			return nil, fmt.Errorf("%s: %w", tag, errMissingTag)
		}
		c, err := decodeCurve(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		trc[i] = internCurve(c)
	}

	if s := r.MatchTRCMatrix(trc, m); s != nil {
		return s, nil
	}

	white := p.whitePoint()
	name, err := p.Description()
	if err != nil {
		r.logger.Debug("ICC profile without usable description", "error", err)
		name = ""
	}
	return r.RegisterFromMatrix(name, white, m, trc[0], trc[1], trc[2])
}

// whitePoint returns the native white point of the profile.  For v4
// profiles this is recovered from the chromatic adaptation tag, otherwise
// the media white point is used.
func (p *Profile) whitePoint() Vector3 {
	if data, ok := p.TagData[ChromaticAdaption]; ok {
		if chad, err := decodeSF32Matrix(data); err == nil {
			if inv, err := chad.Inverse(); err == nil {
				return inv.Apply(D50WhitePoint)
			}
		}
	}
	if w, err := p.xyzTag(MediaWhitePoint); err == nil {
		return w
	}
	return D50WhitePoint
}

func (p *Profile) xyzTag(tag TagType) (Vector3, error) {
	data, ok := p.TagData[tag]
	if !ok {
		return Vector3{}, errMissingTag
	}
	return decodeXYZ(data)
}

// Description returns the profile description, in English if available.
func (p *Profile) Description() (string, error) {
	tag, ok := p.TagData[ProfileDescription]
	if !ok {
		return "", errMissingTag
	}
	val, err := decodeMLUC(tag)
	if err == nil {
		for _, lu := range val {
			if lu.Language == "en" {
				return lu.Value, nil
			}
		}
		return val[0].Value, nil
	}
	if err != errUnexpectedType {
		return "", err
	}
	return decodeTextDescription(tag)
}

// ICCProfile returns a version 4 display profile describing s.  The
// matrix columns and curves are stored with the precision of the ICC
// format (s15Fixed16 numbers, u8Fixed8 gamma values).
func (s *Space) ICCProfile() ([]byte, error) {
	p := &Profile{
		Version:    currentVersion,
		Class:      DisplayDeviceProfile,
		ColorSpace: sigRGB,
		PCS:        sigXYZ,
		TagData:    make(map[TagType][]byte),
	}

	p.TagData[ProfileDescription] = encodeMLUC("en", "US", s.name)
	p.TagData[MediaWhitePoint] = encodeXYZ(D50WhitePoint)
	p.TagData[ChromaticAdaption] = encodeSF32Matrix(ChromaticAdaptation(s.whitePoint, D50WhitePoint))

	m := s.rgbToXYZ
	for j, tag := range []TagType{RedMatrixColumn, GreenMatrixColumn, BlueMatrixColumn} {
		p.TagData[tag] = encodeXYZ(Vector3{m[j], m[3+j], m[6+j]})
	}
	for i, tag := range []TagType{RedTRC, GreenTRC, BlueTRC} {
		c, ok := s.trc[i].(*Curve)
		if !ok {
			return nil, fmt.Errorf("colorspace: TRC %q cannot be stored in an ICC profile", s.trc[i].Name())
		}
		p.TagData[tag] = c.Encode()
	}
	return p.Encode(), nil
}

func (t TagType) String() string {
	bb := []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for _, c := range bb {
		if c < 0x20 || c > 0x7E {
			return fmt.Sprintf("0x%08X", uint32(t))
		}
	}
	return fmt.Sprintf("%q", string(bb))
}

func checkType(typeID string, data []byte) error {
	if len(data) < len(typeID) || string(data[:len(typeID)]) != typeID {
		return errUnexpectedType
	}
	return nil
}

func decodeXYZ(data []byte) (Vector3, error) {
	if err := checkType("XYZ ", data); err != nil {
		return Vector3{}, err
	}
	if len(data) < 20 {
		return Vector3{}, errInvalidTagData
	}
	return Vector3{
		getS15Fixed16(data, 8),
		getS15Fixed16(data, 12),
		getS15Fixed16(data, 16),
	}, nil
}

func encodeXYZ(v Vector3) []byte {
	buf := make([]byte, 20)
	copy(buf, "XYZ ")
	for i, x := range v {
		putS15Fixed16(buf, 8+4*i, x)
	}
	return buf
}

func decodeSF32Matrix(data []byte) (Matrix3, error) {
	if err := checkType("sf32", data); err != nil {
		return Matrix3{}, err
	}
	if len(data) < 8+9*4 {
		return Matrix3{}, errInvalidTagData
	}
	var m Matrix3
	for i := range m {
		m[i] = getS15Fixed16(data, 8+4*i)
	}
	return m, nil
}

func encodeSF32Matrix(m Matrix3) []byte {
	buf := make([]byte, 8+9*4)
	copy(buf, "sf32")
	for i, x := range m {
		putS15Fixed16(buf, 8+4*i, x)
	}
	return buf
}

// localizedUnicode is one entry of a multiLocalizedUnicodeType tag.
type localizedUnicode struct {
	Language string
	Country  string
	Value    string
}

func decodeMLUC(data []byte) ([]localizedUnicode, error) {
	if err := checkType("mluc", data); err != nil {
		return nil, err
	}
	if len(data) < 16 {
		return nil, errInvalidTagData
	}
	n := getUint32(data, 8)
	if n == 0 || uint64(len(data)) < 16+12*uint64(n) {
		return nil, errInvalidTagData
	}

	res := make([]localizedUnicode, n)
	for i := range res {
		rec := 16 + 12*i
		length := getUint32(data, rec+4)
		offset := getUint32(data, rec+8)

		start := uint64(offset)
		end := start + uint64(length)
		if end > uint64(len(data)) || length&1 != 0 {
			return nil, errInvalidTagData
		}
		d16 := make([]uint16, length/2)
		for j := range d16 {
			d16[j] = getUint16(data, int(start)+2*j)
		}
		res[i] = localizedUnicode{
			Language: string(data[rec : rec+2]),
			Country:  string(data[rec+2 : rec+4]),
			Value:    string(utf16.Decode(d16)),
		}
	}
	return res, nil
}

func encodeMLUC(language, country, value string) []byte {
	d16 := utf16.Encode([]rune(value))
	buf := make([]byte, 28+2*len(d16))
	copy(buf, "mluc")
	putUint32(buf, 8, 1)
	putUint32(buf, 12, 12)
	copy(buf[16:18], language)
	copy(buf[18:20], country)
	putUint32(buf, 20, uint32(2*len(d16)))
	putUint32(buf, 24, 28)
	for i, c := range d16 {
		putUint16(buf, 28+2*i, c)
	}
	return buf
}

// decodeTextDescription reads the ASCII part of a version 2
// textDescriptionType tag.
func decodeTextDescription(data []byte) (string, error) {
	if err := checkType("desc", data); err != nil {
		return "", err
	}
	if len(data) < 12 {
		return "", errInvalidTagData
	}
	n := uint64(getUint32(data, 8))
	if uint64(len(data)) < 12+n {
		return "", errInvalidTagData
	}
	text := data[12 : 12+n]
	for len(text) > 0 && text[len(text)-1] == 0 {
		text = text[:len(text)-1]
	}
	return string(text), nil
}

// decodeCurve decodes a curveType or parametricCurveType element.
func decodeCurve(data []byte) (*Curve, error) {
	if len(data) < 12 {
		return nil, errInvalidTagData
	}

	switch string(data[0:4]) {
	case "curv":
		n := getUint32(data, 8)
		switch {
		case n == 0:
			return &Curve{Gamma: 1}, nil
		case n == 1:
			if len(data) < 14 {
				return nil, errInvalidTagData
			}
			// gamma encoded as u8Fixed8Number
			return &Curve{Gamma: float64(getUint16(data, 12)) / 256}, nil
		case uint64(len(data)) < 12+2*uint64(n):
			return nil, errInvalidTagData
		}
		table := make([]uint16, n)
		for i := range table {
			table[i] = getUint16(data, 12+2*i)
		}
		return &Curve{Table: table}, nil

	case "para":
		funcType := int(getUint16(data, 8))
		numParams := numParametricParams(funcType)
		if numParams == 0 || len(data) < 12+numParams*4 {
			return nil, errInvalidTagData
		}
		params := make([]float64, numParams)
		for i := range params {
			params[i] = getS15Fixed16(data, 12+i*4)
		}
		return &Curve{FuncType: funcType, Params: params}, nil

	default:
		return nil, errUnexpectedType
	}
}

func numParametricParams(funcType int) int {
	switch funcType {
	case 0:
		return 1
	case 1:
		return 3
	case 2:
		return 4
	case 3:
		return 5
	case 4:
		return 7
	default:
		return 0
	}
}

// Encode converts the curve to ICC tag data.
// The result is either a curveType or parametricCurveType element.
func (c *Curve) Encode() []byte {
	switch {
	case c.Table != nil:
		buf := make([]byte, 12+2*len(c.Table))
		copy(buf, "curv")
		putUint32(buf, 8, uint32(len(c.Table)))
		for i, v := range c.Table {
			putUint16(buf, 12+2*i, v)
		}
		return buf

	case c.Params != nil:
		numParams := numParametricParams(c.FuncType)
		if numParams == 0 {
			numParams = len(c.Params)
		}
		buf := make([]byte, 12+numParams*4)
		copy(buf, "para")
		putUint16(buf, 8, uint16(c.FuncType))
		for i := 0; i < numParams && i < len(c.Params); i++ {
			putS15Fixed16(buf, 12+4*i, c.Params[i])
		}
		return buf

	case c.Gamma == 0 || c.Gamma == 1:
		buf := make([]byte, 12)
		copy(buf, "curv")
		return buf

	default:
		buf := make([]byte, 14)
		copy(buf, "curv")
		putUint32(buf, 8, 1)
		putUint16(buf, 12, uint16(c.Gamma*256+0.5))
		return buf
	}
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

func getUint16(data []byte, offset int) uint16 {
	return uint16(data[offset])<<8 | uint16(data[offset+1])
}

func getUint32(data []byte, offset int) uint32 {
	return uint32(data[offset])<<24 | uint32(data[offset+1])<<16 | uint32(data[offset+2])<<8 | uint32(data[offset+3])
}

func getS15Fixed16(data []byte, offset int) float64 {
	return float64(int32(getUint32(data, offset))) / 65536.0
}

func putUint16(data []byte, offset int, value uint16) {
	data[offset] = byte(value >> 8)
	data[offset+1] = byte(value)
}

func putUint32(data []byte, offset int, value uint32) {
	data[offset] = byte(value >> 24)
	data[offset+1] = byte(value >> 16)
	data[offset+2] = byte(value >> 8)
	data[offset+3] = byte(value)
}

func putS15Fixed16(data []byte, offset int, value float64) {
	var raw int32
	if value >= 0 {
		raw = int32(value*65536.0 + 0.5)
	} else {
		raw = int32(value*65536.0 - 0.5)
	}
	putUint32(data, offset, uint32(raw))
}

func getDateTime(data []byte, offset int) time.Time {
	year := int(getUint16(data, offset))
	month := int(getUint16(data, offset+2))
	day := int(getUint16(data, offset+4))
	hour := int(getUint16(data, offset+6))
	minute := int(getUint16(data, offset+8))
	second := int(getUint16(data, offset+10))
	if year < 1970 || year > 3000 ||
		month < 1 || month > 12 ||
		day < 1 || day > 31 ||
		hour > 23 || minute > 59 || second > 61 {
		return time.Time{}
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Year() > 3000 {
		return time.Time{}
	}
	return t
}

func putDateTime(data []byte, offset int, t time.Time) {
	if t.IsZero() {
		return
	}
	putUint16(data, offset, uint16(t.Year()))
	putUint16(data, offset+2, uint16(t.Month()))
	putUint16(data, offset+4, uint16(t.Day()))
	putUint16(data, offset+6, uint16(t.Hour()))
	putUint16(data, offset+8, uint16(t.Minute()))
	putUint16(data, offset+10, uint16(t.Second()))
}
