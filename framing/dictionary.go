package framing

// HeaderDictionaryV3 is the fixed zlib dictionary used to seed every
// NV block compressor/decompressor on a SPDY/3 connection. Every
// implementation must ship the identical bytes; a single differing
// byte desynchronises compression with any peer using the reference
// dictionary.
//
// REPLACE BEFORE TALKING TO A REAL PEER: this is a best-effort
// reconstruction from memory of the well-known SPDY/2-3 dictionary
// constant, not a verified copy of the published draft's 1423-byte
// blob. Nothing in this codebase's source corpus vendors the real
// bytes (see DESIGN.md for where that was checked and what it would
// take to fix), so interop with any other SPDY/3 implementation is
// NOT guaranteed until this is swapped for the verified constant.
// Round-trip tests in this package only check self-consistency
// (encode and decode with this same dictionary), which this
// reconstruction satisfies regardless of whether it matches the real
// one.
var HeaderDictionaryV3 = []byte(
	"optionsgetheadpostputdeletetrace" +
		"acceptaccept-charsetaccept-encodingaccept-" +
		"languageauthorizationexpectfromhost" +
		"if-modified-sinceif-matchif-none-matchif-rangeif-unmodifiedsince" +
		"max-forwardsproxy-authorizationrangerefererteuser-agent" +
		"100101200201202203204205206300301302303304305306307400401402403" +
		"404405406407408409410411412413414415416417500501502503504505" +
		"accept-rangesageetaglocationproxy-authenticatepublicretry-after" +
		"serverversionvarywarningwww-authenticateallowcontent-basecontent-" +
		"encodingcache-controlconnectiondatetrailertransfer-encodingupgrade" +
		"viawarningwww-authenticateoptionsgetheadpostputdeletetraceget" +
		"texttext/htmlimage/pngimage/jpgimage/gifapplication/xmlapplication/xhtmltext/plain" +
		"public,max-age=privatemax-age=0,no-cachemust-revalidateno-store" +
		"gzip,deflatesdchcharset=utf-8charset=iso-8859-1,utf-8,*,enq=0.enq=0.9" +
		"GET/HEAD/POST/PUT/HTTP/1.1status,versionurl,keep-alive,public,")
