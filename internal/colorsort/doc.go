// Package colorsort groups photographs by their dominant colour and removes
// the outliers that do not share the majority profile.
//
// The dominant colour of an image is the most populated bucket after
// quantising each RGB channel into Levels steps. Photographs whose dominant
// bucket differs from the day's most common bucket are deleted; frames that
// cannot be decoded (for example one still being written) are left alone.
package colorsort
