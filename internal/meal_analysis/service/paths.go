package service

import (
	"fmt"
	"path"
	"time"
)

const (
	mealCategory    = "meals"
	defaultImageExt = ".jpg"
)

// UploadPath builds the object key of a meal image:
// meals/{userID}/{yyyy/MM/dd}/{id}{ext}.
func UploadPath(userID string, at time.Time, id, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s%s", mealCategory, userID, at.Format("2006/01/02"), id, imageExt(filename))
}

func imageExt(filename string) string {
	ext := path.Ext(filename)
	if ext == "" || ext == "." || ext == filename {
		return defaultImageExt
	}
	return ext
}
