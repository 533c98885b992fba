// datarec-genrec writes sample record files for manual testing and for
// feeding datarec-inspect.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"datarec/pkg/record"
	"datarec/pkg/record/codec"
	"datarec/pkg/store"
)

func main() {
	outDir := flag.String("out", "testdata/records", "output directory for record files")
	flag.Parse()
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	reg := codec.NewRegistry()
	cb, err := codec.CBOR()
	if err != nil {
		log.Fatal(err)
	}
	reg.Register(cb)
	reg.Register(codec.PbStruct())

	// 1) Simple self-describing record over the builtin catalog
	s := store.New(reg)
	mustSet(s, "x", int32(42), "int32")
	mustSet(s, "y", "hi", "string")
	mustSet(s, "ratio", 0.25, "float64")
	mustSet(s, "ok", true, "bool")
	mustSet(s, "raw", []byte{0xDE, 0xAD, 0xBE, 0xEF}, "bytes")
	b, err := record.EncodeIndexed(s)
	if err != nil {
		log.Fatal(err)
	}
	writeOut(*outDir, "simple.bin", b)

	// 2) A stream sharing one index map: first record carries the header,
	// the rest are headerless and rely on it.
	types := record.NewIndexMap()
	for i := 0; i < 3; i++ {
		rs := store.New(reg)
		mustSet(rs, "seq", int64(i), "int64")
		mustSet(rs, "name", fmt.Sprintf("record-%d", i), "string")
		b, err := record.Encode(rs, types, i == 0)
		if err != nil {
			log.Fatal(err)
		}
		writeOut(*outDir, fmt.Sprintf("stream_%02d.bin", i), b)
	}

	// 3) Structured values through the CBOR and protobuf codecs
	cs := store.New(reg)
	mustSet(cs, "tags", map[string]any{"env": "dev", "build": int64(7)}, codec.TypeCbor)
	st, err := structpb.NewStruct(map[string]any{"k": "v"})
	if err != nil {
		log.Fatal(err)
	}
	mustSet(cs, "attrs", st, codec.TypePbStruct)
	b, err = record.EncodeIndexed(cs)
	if err != nil {
		log.Fatal(err)
	}
	writeOut(*outDir, "structured.bin", b)

	fmt.Println("Generated records in", *outDir)
}

func mustSet(s *store.Store, key string, v any, tag string) {
	if err := s.Set(key, v, tag); err != nil {
		log.Fatal(err)
	}
}

func writeOut(dir, name string, b []byte) {
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%-20s %5d bytes  head: %s\n", name, len(b), shortHex(b, 48))
}

func shortHex(b []byte, n int) string {
	if len(b) == 0 {
		return ""
	}
	if n > len(b) {
		n = len(b)
	}
	enc := hex.EncodeToString(b[:n])
	if len(b) > n {
		enc += ".."
	}
	var out []string
	for i := 0; i < len(enc); i += 4 {
		j := i + 4
		if j > len(enc) {
			j = len(enc)
		}
		out = append(out, enc[i:j])
	}
	return strings.Join(out, " ")
}
