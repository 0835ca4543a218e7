package model

import "time"

type Bundle struct {
	ID            string       `json:"id" yaml:"id"`
	Version       string       `json:"version" yaml:"version"`
	Name          string       `json:"name" yaml:"name"`
	Size          string       `json:"size" yaml:"size"`
	UploadedAt    time.Time    `json:"uploadedAt" yaml:"uploadedAt"`
	DeployedCount int          `json:"deployedCount" yaml:"deployedCount"`
	Status        BundleStatus `json:"status" yaml:"status"`
}

type BundleReceipt struct {
	BundleID       string `json:"bundleId"`
	Version        string `json:"version"`
	ChecksumSHA256 string `json:"checksumSha256"`
}
