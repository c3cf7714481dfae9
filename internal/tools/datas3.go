// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/dataproc"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/s3store"
	"github.com/kubiya-solutions-engineering/cli-tools/internal/util"
)

// sampleLines is how much of the uploaded report is echoed back.
const sampleLines = 20

func processCSVTool(d *Deps) *Tool {
	// Instance or shared-file credentials replace the static keys
	var env []EnvVar
	if !d.Config.S3.UseIAM {
		env = []EnvVar{envAWSAccessKeyID, envAWSSecretAccessKey}
	}

	return &Tool{
		Name: "process_csv_to_s3",
		Description: "Process CSV data with custom deduplication rules and upload the JSON report to S3. " +
			"Supports a file path (data_source) or direct CSV content (data_content).",
		ShortDescription: "Deduplicate a rights sheet and upload it to S3",
		Schema: Schema{Parameters: []Parameter{
			{Name: "data_source", Type: "string", Description: "Path to the CSV file to process"},
			{Name: "data_content", Type: "string", Description: "Direct CSV content (wins over data_source)"},
			{Name: "output_location", Type: "string", Required: true, Description: "Local path for the JSON report, or an s3:// location"},
			{Name: "s3_bucket", Type: "string", Required: true, Description: "S3 bucket name for upload"},
			{Name: "s3_key", Type: "string", Required: true, Description: "S3 key for the processed file"},
		}},
		RequiredEnv: env,
		RiskLevel:   RiskMedium,
		Permission:  PermissionAsk,
		Executor:    &ProcessCSVExecutor{deps: d},
	}
}

// ProcessCSVExecutor parses, deduplicates, writes and uploads one sheet.
type ProcessCSVExecutor struct {
	deps *Deps
}

func (e *ProcessCSVExecutor) Execute(ctx context.Context, params map[string]interface{}) (Result, error) {
	source := getStringParam(params, "data_source", "")
	content := getStringParam(params, "data_content", "")
	output := getStringParam(params, "output_location", "")
	bucket := getStringParam(params, "s3_bucket", "")
	key := getStringParam(params, "s3_key", "")

	if source == "" && content == "" {
		return usageResult("❌ Either data_source or data_content is required\n",
			&MissingArgsError{Names: []string{"data_source or data_content"}}), nil
	}

	var b strings.Builder
	b.WriteString("🔄 PROCESSING DATA WITH CUSTOM DEDUPLICATION RULES\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "📋 Data source: %s\n", source)
	fmt.Fprintf(&b, "📦 Output file: %s\n", output)
	fmt.Fprintf(&b, "🪣 S3 Bucket: %s\n", bucket)
	fmt.Fprintf(&b, "🔑 S3 Key: %s\n", key)

	if content != "" {
		fmt.Fprintf(&b, "📝 Using direct CSV content (%d characters)\n", util.RuneLen(content))
	} else {
		fmt.Fprintf(&b, "📁 Using file path: %s\n", source)
		data, err := os.ReadFile(source)
		if err != nil {
			fmt.Fprintf(&b, "❌ Input file not found: %s\n", source)
			return failed(b.String(), ExitFailure, err), nil
		}
		content = string(data)
	}

	table, err := dataproc.ParseTable(content)
	if err != nil {
		b.WriteString("❌ No data could be processed\n")
		return failed(b.String(), ExitFailure, err), nil
	}
	if table.SkippedRows > 0 {
		fmt.Fprintf(&b, "🔄 Skipped %d metadata rows\n", table.SkippedRows)
	}
	fmt.Fprintf(&b, "✅ Parsed as %s with %d records\n", layoutName(table.Layout), len(table.Rows))

	report := dataproc.Process(table)
	writeValidation(&b, table, report)

	data, err := report.Marshal()
	if err != nil {
		fmt.Fprintf(&b, "❌ Error processing data: %v\n", err)
		return failed(b.String(), ExitFailure, err), nil
	}

	localPath, err := e.localPath(&b, output, bucket, key)
	if err != nil {
		return failed(b.String(), ExitFailure, err), nil
	}
	fmt.Fprintf(&b, "💾 Writing processed data to: %s\n", localPath)
	if err := util.AtomicWriteFileWithDir(localPath, data, 0600, 0700); err != nil {
		fmt.Fprintf(&b, "❌ Error writing output file: %v\n", err)
		return failed(b.String(), ExitFailure, err), nil
	}

	obj, err := e.upload(ctx, bucket, key, data)
	if err != nil {
		fmt.Fprintf(&b, "❌ Error uploading to S3: %v\n", err)
		b.WriteString("⚠️  Data processed but S3 upload failed\n")
		return failed(b.String(), ExitFailure, err), nil
	}
	fmt.Fprintf(&b, "✅ Successfully uploaded to %s\n", obj.URI())

	summary := report.ProcessingSummary
	if report.Unexpected() {
		b.WriteString("✅ Data processing and S3 upload completed with warnings!\n")
		fmt.Fprintf(&b, "📊 Summary: %d records processed (no deduplication)\n", summary.TotalRecords)
		b.WriteString("🔄 Recommendation: Check CSV format and column names\n")
	} else {
		b.WriteString("✅ Data processing and S3 upload completed successfully!\n")
		fmt.Fprintf(&b, "📊 Summary: %d → %d records\n", summary.TotalRecords, summary.GroupsCreated)
		fmt.Fprintf(&b, "🔄 Content combinations: %d\n", summary.ContentDescriptionsCombined)
	}
	fmt.Fprintf(&b, "📋 Processed data uploaded to: %s\n", obj.URI())
	b.WriteString("📊 Sample of processed data:\n")
	b.WriteString(util.FirstLines(string(data), sampleLines))
	b.WriteString("\n")

	return Result{Success: true, Output: b.String()}, nil
}

func layoutName(layout dataproc.Layout) string {
	switch layout {
	case dataproc.LayoutTSV:
		return "TSV"
	case dataproc.LayoutCSVMetadata:
		return "CSV with metadata skipped"
	}
	return "CSV"
}

// writeValidation reports missing columns before the upload.
func writeValidation(b *strings.Builder, table *dataproc.Table, report *dataproc.Report) {
	if missing := table.MissingColumns(); len(missing) > 0 {
		fmt.Fprintf(b, "⚠️  Warning: Missing expected columns: %s\n", strings.Join(missing, ", "))
		fmt.Fprintf(b, "📋 Available columns: %s\n", strings.Join(table.Columns, ", "))
	}
	if report.Unexpected() {
		b.WriteString("⚠️  ERROR: This CSV appears to be in a different format than expected.\n")
		b.WriteString("🔍 Expected columns for data processing:\n")
		for _, col := range dataproc.ExpectedColumns {
			fmt.Fprintf(b, "   - %s\n", col)
		}
		b.WriteString("🔄 Processing with available columns instead...\n")
		return
	}
	b.WriteString("🔍 Applying custom deduplication rules...\n")
	fmt.Fprintf(b, "✅ Deduplication complete: %d → %d records\n",
		report.DeduplicationReport.RecordsBeforeDedup, report.DeduplicationReport.RecordsAfterDedup)
}

// localPath picks where the report is written. An s3:// output location
// names the upload, so the local copy goes to the scratch dir.
func (e *ProcessCSVExecutor) localPath(b *strings.Builder, output, bucket, key string) (string, error) {
	if !s3store.IsURI(output) {
		return output, nil
	}
	outBucket, outKey, err := s3store.ParseURI(output)
	if err != nil {
		fmt.Fprintf(b, "❌ %v\n", err)
		return "", err
	}
	if outBucket != bucket || outKey != key {
		fmt.Fprintf(b, "⚠️  output_location %s differs from s3_bucket/s3_key; uploading to s3://%s/%s\n", output, bucket, key)
	}
	return filepath.Join(e.deps.TempDir, "processed_data.json"), nil
}

func (e *ProcessCSVExecutor) upload(ctx context.Context, bucket, key string, data []byte) (s3store.Object, error) {
	cfg := e.deps.Config.S3
	opts := s3store.Options{
		Endpoint: cfg.Endpoint,
		Region:   cfg.Region,
		UseSSL:   cfg.UseSSL,
		UseIAM:   cfg.UseIAM,
	}
	opts.AccessKeyID, _ = envAWSAccessKeyID.Lookup(e.deps.Getenv)
	opts.SecretAccessKey, _ = envAWSSecretAccessKey.Lookup(e.deps.Getenv)
	opts.SessionToken = strings.TrimSpace(e.deps.Getenv("AWS_SESSION_TOKEN"))

	uploader, err := e.deps.NewUploader(opts)
	if err != nil {
		return s3store.Object{}, err
	}
	if uploader == nil {
		return s3store.Object{}, errors.New("no s3 uploader configured")
	}
	return uploader.Upload(ctx, bucket, key, data, "application/json")
}
