// Package pdf reads the file-level syntax of PDF documents. It tokenizes
// and parses the object grammar, named objects, cross-reference tables,
// trailers and startxref markers, and unpacks compressed object streams.
//
// The parser is deliberately lenient. Malformed input is reported on the
// parsed nodes themselves, never aborts the parse: strings, arrays,
// dictionaries, streams and named objects carry an error field, and an
// unreadable construct is represented by an Invalid placeholder. The only errors returned through the error channel are
// environmental ones, such as a failing reader or a seek on an input that
// does not support it.
//
// Typical use reads top-level objects in a loop:
//
//	p := pdf.NewParser(f)
//	for {
//		tlo, err := p.ReadTopLevel()
//		if err != nil {
//			// unusable input
//		}
//		if _, end := tlo.(pdf.Null); end {
//			break
//		}
//		if tlo.Failed() {
//			p.SkipToEndobj()
//		}
//	}
//
// Parsed trees can be written back in an annotated textual form with Dump
// and DumpTopLevel. Stream payloads stay raw during parsing; decoding is
// explicit through a Codec such as DecoderChain.
package pdf
