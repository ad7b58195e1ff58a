package service

import "app/internal/model"

// milestoneTemplates is the static catalog of age-banded developmental
// milestones, keyed by stable IDs so achievements survive catalog edits.
// Age bands follow the CDC "Learn the Signs" guidance.
var milestoneTemplates = []model.MilestoneTemplate{
	// 0-3 months
	{ID: "motor-head-up", Category: model.MilestoneMotor, Title: "Lifts head during tummy time", Description: "Raises head briefly while lying on stomach.", MinAgeMonths: 0, MaxAgeMonths: 3},
	{ID: "social-first-smile", Category: model.MilestoneSocial, Title: "First social smile", Description: "Smiles in response to your face or voice.", MinAgeMonths: 0, MaxAgeMonths: 3},
	{ID: "language-cooing", Category: model.MilestoneLanguage, Title: "Coos and gurgles", Description: "Makes vowel sounds like \"oo\" and \"aa\".", MinAgeMonths: 1, MaxAgeMonths: 4},

	// 3-6 months
	{ID: "motor-rolls-over", Category: model.MilestoneMotor, Title: "Rolls over", Description: "Rolls from tummy to back, then back to tummy.", MinAgeMonths: 3, MaxAgeMonths: 6},
	{ID: "cognitive-reaches-toys", Category: model.MilestoneCognitive, Title: "Reaches for toys", Description: "Reaches for and grasps objects of interest.", MinAgeMonths: 3, MaxAgeMonths: 6},
	{ID: "social-laughs", Category: model.MilestoneSocial, Title: "Laughs out loud", Description: "Laughs in response to play.", MinAgeMonths: 3, MaxAgeMonths: 6},

	// 6-9 months
	{ID: "motor-sits-unsupported", Category: model.MilestoneMotor, Title: "Sits without support", Description: "Sits steadily without being propped up.", MinAgeMonths: 6, MaxAgeMonths: 9},
	{ID: "language-babbles", Category: model.MilestoneLanguage, Title: "Babbles consonant sounds", Description: "Strings sounds like \"bababa\" and \"mamama\".", MinAgeMonths: 6, MaxAgeMonths: 10},
	{ID: "cognitive-object-permanence", Category: model.MilestoneCognitive, Title: "Looks for hidden objects", Description: "Searches for a toy covered by a cloth.", MinAgeMonths: 7, MaxAgeMonths: 10},

	// 9-12 months
	{ID: "motor-crawls", Category: model.MilestoneMotor, Title: "Crawls", Description: "Moves forward on hands and knees.", MinAgeMonths: 7, MaxAgeMonths: 12},
	{ID: "motor-pulls-to-stand", Category: model.MilestoneMotor, Title: "Pulls to stand", Description: "Pulls up to standing holding furniture.", MinAgeMonths: 9, MaxAgeMonths: 12},
	{ID: "social-waves-bye", Category: model.MilestoneSocial, Title: "Waves bye-bye", Description: "Waves in response to \"bye-bye\".", MinAgeMonths: 9, MaxAgeMonths: 13},

	// 12-18 months
	{ID: "motor-first-steps", Category: model.MilestoneMotor, Title: "Takes first steps", Description: "Walks a few steps without holding on.", MinAgeMonths: 11, MaxAgeMonths: 16},
	{ID: "language-first-words", Category: model.MilestoneLanguage, Title: "Says first words", Description: "Uses one or two words besides mama/dada.", MinAgeMonths: 11, MaxAgeMonths: 16},
	{ID: "cognitive-uses-spoon", Category: model.MilestoneCognitive, Title: "Uses a spoon", Description: "Feeds self with a spoon, with some spilling.", MinAgeMonths: 13, MaxAgeMonths: 18},

	// 18-24 months
	{ID: "language-two-word-phrases", Category: model.MilestoneLanguage, Title: "Two-word phrases", Description: "Combines words like \"more milk\".", MinAgeMonths: 18, MaxAgeMonths: 26},
	{ID: "motor-kicks-ball", Category: model.MilestoneMotor, Title: "Kicks a ball", Description: "Kicks a ball forward without falling.", MinAgeMonths: 18, MaxAgeMonths: 26},
	{ID: "social-parallel-play", Category: model.MilestoneSocial, Title: "Plays alongside other children", Description: "Plays next to other children and notices them.", MinAgeMonths: 20, MaxAgeMonths: 30},

	// 2-3 years
	{ID: "language-simple-sentences", Category: model.MilestoneLanguage, Title: "Speaks in short sentences", Description: "Uses sentences of three or more words.", MinAgeMonths: 24, MaxAgeMonths: 38},
	{ID: "cognitive-pretend-play", Category: model.MilestoneCognitive, Title: "Pretend play", Description: "Feeds a doll or makes a toy drive.", MinAgeMonths: 24, MaxAgeMonths: 38},
	{ID: "motor-jumps-in-place", Category: model.MilestoneMotor, Title: "Jumps with both feet", Description: "Jumps in place with both feet off the ground.", MinAgeMonths: 24, MaxAgeMonths: 38},

	// 3-5 years
	{ID: "social-takes-turns", Category: model.MilestoneSocial, Title: "Takes turns", Description: "Takes turns in games with other children.", MinAgeMonths: 36, MaxAgeMonths: 60},
	{ID: "cognitive-counts-to-ten", Category: model.MilestoneCognitive, Title: "Counts to ten", Description: "Counts objects out loud up to ten.", MinAgeMonths: 40, MaxAgeMonths: 60},
	{ID: "motor-hops-one-foot", Category: model.MilestoneMotor, Title: "Hops on one foot", Description: "Hops several times on one foot.", MinAgeMonths: 42, MaxAgeMonths: 60},
}
