package ascal

// EncodeHeader serializes h in the named layout. Only the fields the layout
// carries are written; Magic, Type and Version are filled in from the layout.
// It is the inverse of Layout.Parse and is used to build synthetic windows.
func EncodeHeader(name string, h FrameHeader) ([]byte, error) {
	l, err := LayoutByName(name, DefaultHeaderConfig())
	if err != nil {
		return nil, err
	}
	fl := l.(*fieldLayout)

	buf := make([]byte, fl.size)
	if fl.magic != nil {
		copy(buf, fl.magic)
	}
	buf[fl.typeOff] = fl.typ
	if fl.versionOff >= 0 {
		buf[fl.versionOff] = fl.version
	}
	buf[fl.formatOff] = h.FormatCode
	put16(buf, fl.headerOff, uint16(h.HeaderLength))
	if fl.attrWide {
		put16(buf, fl.attrOff, h.Attributes)
	} else {
		buf[fl.attrOff] = uint8(h.Attributes)
	}
	put16(buf, fl.widthOff, uint16(h.Width))
	put16(buf, fl.heightOff, uint16(h.Height))
	put16(buf, fl.strideOff, uint16(h.Stride))
	put16(buf, fl.outWOff, uint16(h.OutputWidth))
	put16(buf, fl.outHOff, uint16(h.OutputHeight))
	return buf, nil
}

func put16(b []byte, off int, v uint16) {
	b[off] = byte(v >> 8)
	b[off+1] = byte(v)
}
