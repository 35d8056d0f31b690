package iso

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	sectorSize = 2048

	// Volume descriptors start at sector 16.
	vdStart = 16

	vdTypeBootRecord = 0
	vdTypeTerminator = 255

	platformX86 = 0x00
	platformEFI = 0xEF

	bootIndicatorBootable = 0x88
)

var elToritoSystemID = []byte("EL TORITO SPECIFICATION")

// BootEntry is one decoded entry of an El Torito boot catalog.
type BootEntry struct {
	Platform    byte
	MediaType   byte
	LoadRBA     uint32
	SectorCount uint16
}

// BootCatalog holds the two boot paths a dual-boot installer image must
// carry: the legacy BIOS entry and the UEFI entry.
type BootCatalog struct {
	BIOS BootEntry
	UEFI BootEntry
}

// ReadBootCatalog locates and decodes the El Torito boot catalog of the
// image at isoPath. It fails if the boot record, the catalog validation
// entry, the default BIOS entry, or the UEFI section entry is missing or
// malformed.
var ReadBootCatalog = func(isoPath string) (*BootCatalog, error) {
	f, err := os.Open(isoPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	catalogLBA, err := findBootCatalogLBA(f)
	if err != nil {
		return nil, err
	}

	catalog := make([]byte, sectorSize)
	if _, err := f.ReadAt(catalog, int64(catalogLBA)*sectorSize); err != nil {
		return nil, fmt.Errorf("boot catalog at sector %d not readable: %w", catalogLBA, err)
	}

	return decodeBootCatalog(catalog)
}

// findBootCatalogLBA walks the volume descriptor set for the El Torito boot
// record and returns the absolute sector of the boot catalog.
func findBootCatalogLBA(r io.ReaderAt) (uint32, error) {
	sector := make([]byte, sectorSize)
	for lba := vdStart; ; lba++ {
		if _, err := r.ReadAt(sector, int64(lba)*sectorSize); err != nil {
			return 0, fmt.Errorf("%w: truncated volume descriptor set", ErrNotAnImage)
		}
		if !bytes.Equal(sector[1:6], []byte("CD001")) {
			return 0, fmt.Errorf("%w: missing CD001 signature at sector %d", ErrNotAnImage, lba)
		}
		switch sector[0] {
		case vdTypeBootRecord:
			if !bytes.Equal(sector[7:7+len(elToritoSystemID)], elToritoSystemID) {
				continue
			}
			// Absolute pointer to the boot catalog, little-endian.
			return binary.LittleEndian.Uint32(sector[0x47:0x4b]), nil
		case vdTypeTerminator:
			return 0, fmt.Errorf("image has no El Torito boot record")
		}
	}
}

func decodeBootCatalog(catalog []byte) (*BootCatalog, error) {
	validation := catalog[0:32]
	if validation[0] != 0x01 {
		return nil, fmt.Errorf("boot catalog validation entry has header ID %#02x, want 0x01", validation[0])
	}
	if validation[30] != 0x55 || validation[31] != 0xAA {
		return nil, fmt.Errorf("boot catalog validation entry has bad key bytes")
	}
	var sum uint16
	for i := 0; i < 32; i += 2 {
		sum += binary.LittleEndian.Uint16(validation[i : i+2])
	}
	if sum != 0 {
		return nil, fmt.Errorf("boot catalog validation entry checksum is non-zero")
	}

	initial := catalog[32:64]
	if initial[0] != bootIndicatorBootable {
		return nil, fmt.Errorf("default boot entry is not marked bootable (indicator %#02x)", initial[0])
	}
	cat := &BootCatalog{
		BIOS: BootEntry{
			Platform:    validation[1],
			MediaType:   initial[1],
			SectorCount: binary.LittleEndian.Uint16(initial[6:8]),
			LoadRBA:     binary.LittleEndian.Uint32(initial[8:12]),
		},
	}

	// Scan the section headers that follow for the EFI section. 0x91 marks
	// the final header.
	for off := 64; off+64 <= len(catalog); {
		header := catalog[off : off+32]
		if header[0] != 0x90 && header[0] != 0x91 {
			break
		}
		entry := catalog[off+32 : off+64]
		if header[1] == platformEFI && entry[0] == bootIndicatorBootable {
			cat.UEFI = BootEntry{
				Platform:    header[1],
				MediaType:   entry[1],
				SectorCount: binary.LittleEndian.Uint16(entry[6:8]),
				LoadRBA:     binary.LittleEndian.Uint32(entry[8:12]),
			}
			return cat, nil
		}
		if header[0] == 0x91 {
			break
		}
		off += 32 * (1 + max(int(binary.LittleEndian.Uint16(header[2:4])), 1))
	}
	return nil, fmt.Errorf("boot catalog has no UEFI section entry")
}

// Legacy BIOS boot images mastered with a boot info table get bytes 8-63
// rewritten in place by the remastering tool; the regions before and after
// must still match the vendor original.
const (
	bootInfoTableStart = 8
	bootInfoTableEnd   = 64
)

// VerifyBootCatalog confirms a remastered image remains bootable on both
// firmware paths: the catalog decodes, and both referenced boot images match
// the files in the mastered tree. A failure here is a build failure, never a
// degraded success.
var VerifyBootCatalog = func(isoPath, treeDir string) error {
	cat, err := ReadBootCatalog(isoPath)
	if err != nil {
		return fmt.Errorf("remastered image failed boot catalog check: %w", err)
	}

	f, err := os.Open(isoPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// -boot-load-size 4 loads four 512-byte virtual sectors.
	biosImage := make([]byte, int(cat.BIOS.SectorCount)*512)
	if _, err := f.ReadAt(biosImage, int64(cat.BIOS.LoadRBA)*sectorSize); err != nil {
		return fmt.Errorf("BIOS boot image at sector %d not readable: %w", cat.BIOS.LoadRBA, err)
	}
	want, err := os.ReadFile(filepath.Join(treeDir, "isolinux.bin"))
	if err != nil {
		return fmt.Errorf("mastered tree is missing isolinux.bin: %w", err)
	}
	if len(want) < len(biosImage) {
		biosImage = biosImage[:len(want)]
	}
	if !bytes.Equal(biosImage[:bootInfoTableStart], want[:bootInfoTableStart]) ||
		!bytes.Equal(biosImage[bootInfoTableEnd:], want[bootInfoTableEnd:len(biosImage)]) {
		return fmt.Errorf("BIOS boot image in catalog does not match isolinux.bin")
	}

	efiWant, err := os.ReadFile(filepath.Join(treeDir, "efiboot.img"))
	if err != nil {
		return fmt.Errorf("mastered tree is missing efiboot.img: %w", err)
	}
	efiImage := make([]byte, len(efiWant))
	if _, err := f.ReadAt(efiImage, int64(cat.UEFI.LoadRBA)*sectorSize); err != nil {
		return fmt.Errorf("UEFI boot image at sector %d not readable: %w", cat.UEFI.LoadRBA, err)
	}
	if !bytes.Equal(efiImage, efiWant) {
		return fmt.Errorf("UEFI boot image in catalog does not match efiboot.img")
	}

	return nil
}
