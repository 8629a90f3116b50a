package sniff

// ContentType maps a format tag to its canonical outbound MIME type.
// Pure lookup, no inference.
func ContentType(f Format) string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXlsx:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPptx:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case FormatDoc:
		return "application/msword"
	case FormatXls:
		return "application/vnd.ms-excel"
	case FormatPpt:
		return "application/vnd.ms-powerpoint"
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatTIFF:
		return "image/tiff"
	case FormatBMP:
		return "image/bmp"
	case FormatRTF:
		return "application/rtf"
	case FormatHTML:
		return "text/html"
	case FormatXML:
		return "application/xml"
	case FormatJSON:
		return "application/json"
	case FormatTXT:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// Supported reports whether the remote analysis service accepts the format.
// Legacy OLE2 Office and raw text projections are rejected by the service
// and must go through local extraction.
func Supported(f Format) bool {
	switch f {
	case FormatPDF, FormatDocx, FormatXlsx, FormatPptx,
		FormatPNG, FormatJPEG, FormatTIFF, FormatBMP, FormatHTML:
		return true
	default:
		return false
	}
}

// PageDescription reports whether the format carries embedded images that
// local extraction can recover (PDF today; raster images are themselves the
// image).
func PageDescription(f Format) bool {
	return f == FormatPDF
}

// Image reports whether the format is a raster image.
func Image(f Format) bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatTIFF, FormatBMP:
		return true
	default:
		return false
	}
}
