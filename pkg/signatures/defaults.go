/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: defaults.go
Description: Built-in signature table. Covers the common image formats with reliable
start and end markers. Larger tables are loaded from YAML files.
*/

package signatures

// Defaults returns the built-in signature table in matching order
func Defaults() []Signature {
	return []Signature{
		{Key: "jpg_jfif", Start: mustHex("FFD8FFE000104A46"), End: mustHex("FFD9"), Extension: ".jpg"},
		{Key: "jpg_exif", Start: mustHex("FFD8FFE100"), End: mustHex("FFD9"), Extension: ".jpg"},
		{Key: "gif_87a", Start: mustHex("474946383761"), End: mustHex("003B"), Extension: ".gif"},
		{Key: "gif_89a", Start: mustHex("474946383961"), End: mustHex("003B"), Extension: ".gif"},
		{Key: "png", Start: mustHex("89504E470D0A1A0A"), End: mustHex("49454E44AE426082"), Extension: ".png"},
	}
}

func mustHex(s string) []byte {
	b, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return b
}
