package files

// Constants for tour image uploads
const (
	MaxFilenameLength = 255
	MaxFileSize       = 10 * 1024 * 1024 // 10MB banner limit
	UploadPrefix      = "/uploads/"
)

// AllowedContentTypes is the image whitelist for tour banners
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AllowedExtensions maps accepted extensions to their canonical content type
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}
