package btc

// Prior transactions taken from mainnet.
const (
	p2pkPrevTxn = "" +
		"010000000100000000000000000000000000000000000000000000000000000000000000" +
		"00ffffffff0704ffff001d0134ffffffff0100f2052a0100000043410411db93e1dcdb8a" +
		"016b49840f8c53bc1eb68a382e97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464" +
		"f82e160bfa9b8b64f9d4c03f999b8643f656b412a3ac00000000"

	p2pkhPrevTxn = "" +
		"01000000014da2d059c1c6eb1c66884643f3bfa917cdb182273bf9dd2361db0c1c6bc706" +
		"61000000008b483045022100f2522df4a0d2193ee53ad95b698bf502e5874d340b4bb4f8" +
		"0720015f2ce87296022061d33d02d6f4a3b131a18328c3b1249e53fa115735c2597e29b0" +
		"738a1d5f3f8801410445bd85326dabc1772b4b319e0dc924ef93caf2360a033941e427f0" +
		"397b265f3c46e805be40904034880e781ab758a9e67518c624393e2ac14339faa45fafc5" +
		"deffffffff0100e1f505000000001976a91412ab8dc588ca9d5787dde7eb29569da63c3a" +
		"238c88ac00000000"

	legacyManyInputsPrevTxn = "" +
		"0100000006d572e075a155d3fa334230a691cf085d463215aead3c417f08f931ccbbe6a1" +
		"321b0000006b483045022100cdeb3add0650fc8b8351512d6df17fbfc602ec484d8c5c6a" +
		"7800d3cd5e71fac60220481616b00629c8c7a81a10397db2942ce21676eb5fd4be20bc44" +
		"31754c657f6001210217630c3bfab894e6e7322ae6d104d9b9aff58ae8ce4c30f45e9903" +
		"51ba3668a4ffffffff9b4139cb7a02366cd228514a89b46cb55fc8183b03c3f9b8fe583e" +
		"fe93f28958420000006b483045022100a19519b0d4af6a5f50301c36d620c7c2b5fea705" +
		"7874a184c03db88196933fd4022070e559e34fe80e17a6d9e4b400d183c22af094684004" +
		"1220a0965487964b46f301210334f414ce378f5f24a128dbf34a1be8d8a1b863e665f782" +
		"99a52f06991be8406dffffffff4b98c9a61ad1b2070ebbcfc2d616824ff3259c5c0d09b8" +
		"1f38975446f12e57cb3a0000006b483045022100e9b10baf0226b7394474142b87edcd26" +
		"fef74f6fcb6b82833559e95481a51f5802204db8a3f7962f1e731b815f01807ef16b6d48" +
		"bd73a40e6534d8e4abc1d72a2554012103e7dcb93f93afdf17b60e00b21f8a283e8140f5" +
		"3619970daf7d3b5934230c420dfffffffff63acaa7893f29aa069dbbd6c74bdb9f597d70" +
		"3e0f9a99d52b5930edd568ff54000000006b483045022100a3b9578999c1fb5d07c047c9" +
		"6569476a73cc8684b1b6f1461cdeaa81de58e631022049cb3e73977605aad472e470a995" +
		"9ab913f2b101c268b8cddadd4bca16db4bf10121033011c8839eb82d1c37596bee611cf7" +
		"0564d21fb38ce0f4535c4d1d5e53dad958ffffffffd5c0e501e2045ba6fed26aba945e0d" +
		"6333d2ca555a60e4c1c920f3e27030bc17400000006b483045022100bbf7e176a402c223" +
		"32ab21c3aa0a5ca05bb9efe0d2a3f3797d5174873d4fc5e8022061aba78025eb56e7a8e1" +
		"663c68bb63ff0d0d7db0b6fc5064e021994a59cf8c0c012103ca9827e71289cfc3581340" +
		"ae413ae7860af88829b05e30083cee496cb9cdff39ffffffff64cca9bfba56c7f2dfb497" +
		"53a7f90fe8e2b2121f3d1cd9221a1032425095ed3a8f0000006b483045022100b275537b" +
		"a5e33b3511925e68df84d62487640dd813cf179cf65abd2920f4c29f022072523568c14f" +
		"50881bd527d352847a343d65f5620a0df6e6683c8a793ff77a240121030ab067dab80cd5" +
		"89f30e36d45902e933abc270304829b4e7323ba51695f8d331ffffffff01f0270f000000" +
		"0000160014854fe623a8a6a4c76779b57c3895ed2e0962647400000000"

	segwitPrevTxn = "" +
		"0200000000010258afb1ece76f01c24f4935f453d210518163cb1d0383eaec331b202ebe" +
		"b5e3890000000017160014a76cad25cb569bb47305513ebedd6011dc419deeffffffff2b" +
		"3682b35925885001f0e321df28d4ac675a9cbbccef2a69533bea7c5e5ad2c40000000017" +
		"160014a76cad25cb569bb47305513ebedd6011dc419deeffffffff029411000000000000" +
		"17a914bd7aabdeeef211b1bdad7218e14fea6c032101c087f22f00000000000017a914ea" +
		"f97514c5ac1e41e413502e97ae42ebf27ace3a870247304402206e038f4712541d699697" +
		"ed55efc41219df4f244fc72caa5edd653837f6555f6f02201cd8ea15b65fda17992abafa" +
		"ed86e066c3271ac16b9c46c54c2192438843dd040121029f75e1ef6b04e004a308b1f592" +
		"15a8a3a5b7958bbcf184cc24ba7ab65744487802483045022100d15ce61648edc28b8b5a" +
		"3531b80a1e8fc3b3eebe7d3fc4ca962cb04afc770dda02207c7eaf882d7fac45d2752f20" +
		"e48d2f896715cbc5a3b0f5de3e19fea0da99beac0121029f75e1ef6b04e004a308b1f592" +
		"15a8a3a5b7958bbcf184cc24ba7ab65744487800000000"

	segwitCoinbasePrevTxn = "" +
		"010000000001010000000000000000000000000000000000000000000000000000000000" +
		"000000ffffffff640332610b2cfabe6d6ddcb8d8f2a2ddf5191d8191cfa7aa4fd9d85c52" +
		"9f2ce8ed4363c1a8942f14810b10000000f09f909f092f4632506f6f6c2f650000000000" +
		"000000000000000000000000000000000000000000000000000000000000050054000000" +
		"0000000004b1bbbb26000000001976a914c825a1ecf2a6830c4401620c3a16f1995057c2" +
		"ab88ac0000000000000000266a24aa21a9edd02fc86dcb2b66db1a5add17b3660e4046f5" +
		"0cde03199425f0944c7becb6546a0000000000000000266a2448617468e62698d5bdd575" +
		"72ff76305ed48933e8b787a67df4319ade7d798df03c706edf00000000000000002c6a4c" +
		"2952534b424c4f434b3a3c622bf845a23d0ee4927d14fe0455d8e30af6e68e7e3620aa1a" +
		"f6270044738b012000000000000000000000000000000000000000000000000000000000" +
		"00000000730b053f"

	// segwitPrevTxn without marker, flag and witnesses
	segwitPrevTxnStripped = "" +
		"020000000258afb1ece76f01c24f4935f453d210518163cb1d0383eaec331b202ebeb5e3" +
		"890000000017160014a76cad25cb569bb47305513ebedd6011dc419deeffffffff2b3682" +
		"b35925885001f0e321df28d4ac675a9cbbccef2a69533bea7c5e5ad2c400000000171600" +
		"14a76cad25cb569bb47305513ebedd6011dc419deeffffffff02941100000000000017a9" +
		"14bd7aabdeeef211b1bdad7218e14fea6c032101c087f22f00000000000017a914eaf975" +
		"14c5ac1e41e413502e97ae42ebf27ace3a8700000000"
)
