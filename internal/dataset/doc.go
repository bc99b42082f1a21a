// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

/*
Package dataset loads the pipeline's four input tables from CSV files.

Expected files (names are configurable):

	cleaned_students.csv      student_id, name, skills, cgpa, stream, college_tier,
	                          rural_urban, location, gender, university, interests
	cleaned_internships.csv   internship_id, title, company, domain, location, duration,
	                          stipend, required_skills, description
	                          [, rural_urban, tier_focus, gender_focus]
	cleaned_interactions.csv  student_id, internship_id, interaction_type, timestamp
	cleaned_outcomes.csv      student_id, internship_id, application_status

Column names are matched case-insensitively and extra columns are ignored.
Skill lists are split on commas, semicolons or pipes and lowercased.
Malformed rows are skipped and counted.

A missing, empty or column-less students, internships or outcomes file is
recommend.ErrDataUnavailable. With SyntheticFallback enabled the loader then
returns a seeded synthetic snapshot instead. A missing interactions file
only empties the collaborative signal.
*/
package dataset
