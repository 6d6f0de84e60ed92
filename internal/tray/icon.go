package tray

import "encoding/binary"

// iconData is a generated 16x16 ICO: a translucent pane over a solid
// bar, echoing what the program does to the taskbar. Generating it
// keeps the binary free of asset pipelines.
var iconData = buildIcon()

func buildIcon() []byte {
	const size = 16

	// BGRA, bottom-up, as ICO bitmaps are stored.
	pixels := make([]byte, size*size*4)
	set := func(x, y int, b, g, r, a byte) {
		off := ((size-1-y)*size + x) * 4
		pixels[off+0] = b
		pixels[off+1] = g
		pixels[off+2] = r
		pixels[off+3] = a
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			switch {
			case y >= 12:
				// Taskbar strip along the bottom.
				set(x, y, 0xD0, 0xB0, 0x40, 0xFF)
			case x >= 3 && x <= 12 && y >= 2 && y <= 11:
				// Frosted pane.
				set(x, y, 0xF0, 0xE0, 0xC0, 0x90)
			}
		}
	}

	// AND mask, all zero: transparency comes from the alpha channel.
	mask := make([]byte, size*4)

	// BITMAPINFOHEADER with doubled height for the mask plane.
	header := make([]byte, 40)
	binary.LittleEndian.PutUint32(header[0:], 40)
	binary.LittleEndian.PutUint32(header[4:], size)
	binary.LittleEndian.PutUint32(header[8:], size*2)
	binary.LittleEndian.PutUint16(header[12:], 1)
	binary.LittleEndian.PutUint16(header[14:], 32)

	imageLen := len(header) + len(pixels) + len(mask)

	ico := make([]byte, 0, 6+16+imageLen)
	dir := make([]byte, 6)
	binary.LittleEndian.PutUint16(dir[2:], 1) // type: icon
	binary.LittleEndian.PutUint16(dir[4:], 1) // one image
	ico = append(ico, dir...)

	entry := make([]byte, 16)
	entry[0] = size
	entry[1] = size
	binary.LittleEndian.PutUint16(entry[4:], 1)  // color planes
	binary.LittleEndian.PutUint16(entry[6:], 32) // bits per pixel
	binary.LittleEndian.PutUint32(entry[8:], uint32(imageLen))
	binary.LittleEndian.PutUint32(entry[12:], 6+16) // image offset
	ico = append(ico, entry...)

	ico = append(ico, header...)
	ico = append(ico, pixels...)
	ico = append(ico, mask...)
	return ico
}
